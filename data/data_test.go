package data

import (
	"sort"
	"testing"
)

func TestReproducible(tst *testing.T) {
	cfg := DefaultConfig()
	d1 := Generate(cfg)
	d2 := Generate(cfg)
	if len(d1.Points) != len(d2.Points) {
		tst.Fatal("Datasets have different lengths")
	}
	for i := range d1.Points {
		if d1.Points[i] != d2.Points[i] {
			tst.Errorf("Point %d differs: %v vs %v", i, d1.Points[i], d2.Points[i])
		}
		if d1.Outlier[i] != d2.Outlier[i] {
			tst.Errorf("Mask %d differs", i)
		}
	}
}

func TestSeedChangesData(tst *testing.T) {
	cfg1 := DefaultConfig()
	cfg2 := DefaultConfig()
	cfg2.Seed = 13
	d1 := Generate(cfg1)
	d2 := Generate(cfg2)
	same := true
	for i := range d1.Points {
		if d1.Points[i] != d2.Points[i] {
			same = false
			break
		}
	}
	if same {
		tst.Error("Different seeds produced identical datasets")
	}
}

func TestGenerate(tst *testing.T) {
	cfg := DefaultConfig()
	cfg.N = 100
	d := Generate(cfg)
	if len(d.Points) != cfg.N || len(d.Outlier) != cfg.N {
		tst.Fatal("Incorrect dataset size")
	}
	if !sort.SliceIsSorted(d.Points, func(i, j int) bool {
		return d.Points[i].X < d.Points[j].X
	}) {
		tst.Error("X values are not sorted")
	}
	for i, p := range d.Points {
		if p.X < cfg.XMin || p.X > cfg.XMax {
			tst.Errorf("Point %d outside the x range: %v", i, p.X)
		}
		if p.Sigma != cfg.Sigma {
			tst.Errorf("Point %d has incorrect sigma: %v", i, p.Sigma)
		}
	}
	n := d.NOutliers()
	if n == 0 || n == cfg.N {
		tst.Errorf("Unrealistic outlier count: %d of %d", n, cfg.N)
	}
}
