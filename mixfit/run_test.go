package main

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"bitbucket.org/Davydov/mixfit/data"
	"bitbucket.org/Davydov/mixfit/mixture"
	"bitbucket.org/Davydov/mixfit/posterior"
	"bitbucket.org/Davydov/mixfit/sample"
)

// misclassified returns the smallest number of points on the wrong
// side of any membership threshold separating outliers from the rest.
func misclassified(probs []float64, outlier []bool) int {
	thresholds := append([]float64{0, 1}, probs...)
	sort.Float64s(thresholds)
	best := len(probs)
	for _, t := range thresholds {
		wrong := 0
		for i, p := range probs {
			if outlier[i] && p > t {
				wrong++
			}
			if !outlier[i] && p <= t {
				wrong++
			}
		}
		if wrong < best {
			best = wrong
		}
	}
	return best
}

func TestFullRun(tst *testing.T) {
	rand.Seed(1)
	d := data.Generate(data.DefaultConfig())
	model := mixture.New(d, mixture.DefaultBounds())

	s := sample.NewEnsemble(32)
	s.Quiet = true
	s.SetReportPeriod(1e9)
	s.SetModel(model)
	s.Run(500, 1500)

	c := s.Chain()
	if c.Len() != 32*1500 {
		tst.Fatalf("Expected %d samples, got %d", 32*1500, c.Len())
	}

	probs := posterior.Membership(c)
	if len(probs) != len(d.Points) {
		tst.Fatal("Incorrect number of membership probabilities")
	}
	for i, p := range probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			tst.Fatalf("Point %d: probability %v", i, p)
		}
	}
	if wrong := misclassified(probs, d.Outlier); wrong > 1 {
		tst.Errorf("Memberships misclassify %d points: %v", wrong, probs)
	}

	summaries := posterior.Summarize(c, 0.68)
	for _, ps := range summaries {
		if ps.Lower > ps.Median || ps.Median > ps.Upper {
			tst.Errorf("%s: interval (%v, %v, %v) is not ordered",
				ps.Name, ps.Lower, ps.Median, ps.Upper)
		}
	}
	for _, want := range []struct {
		name  string
		value float64
		tol   float64
	}{
		{"m", 1, 0.3},
		{"b", 0, 0.3},
	} {
		i := c.Index(want.name)
		if i < 0 {
			tst.Fatal("Missing parameter", want.name)
		}
		if got := summaries[i].Median; math.Abs(got-want.value) > want.tol {
			tst.Errorf("%s: posterior median %v, expected %v +- %v",
				want.name, got, want.value, want.tol)
		}
	}

	cov := posterior.Covariance(c)
	n, _ := cov.Dims()
	if n != len(c.Names) {
		tst.Fatal("Incorrect covariance dimension")
	}
	for i := 0; i < n; i++ {
		if cov.At(i, i) <= 0 {
			tst.Errorf("Parameter %s has non-positive variance", c.Names[i])
		}
	}
}
