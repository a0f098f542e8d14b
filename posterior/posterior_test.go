package posterior

import (
	"math"
	"testing"

	"bitbucket.org/Davydov/mixfit/sample"
)

const smallDiff = 1e-12

func TestMembership(tst *testing.T) {
	c := sample.NewChain([]string{"m", "b"})
	// two points, two samples with known per-point weights
	c.Append([]float64{1, 0}, -1,
		[]float64{math.Log(0.8), math.Log(0.5)},
		[]float64{math.Log(0.2), math.Log(0.5)})
	c.Append([]float64{1, 0}, -1,
		[]float64{math.Log(0.6), math.Log(0.1)},
		[]float64{math.Log(0.4), math.Log(0.9)})

	probs := Membership(c)
	want := []float64{(0.8 + 0.6) / 2, (0.5 + 0.1) / 2}
	if len(probs) != len(want) {
		tst.Fatal("Incorrect number of points")
	}
	for i := range want {
		if math.Abs(probs[i]-want[i]) > smallDiff {
			tst.Errorf("Point %d: got %v, expected %v", i, probs[i], want[i])
		}
	}

	// averaging is a pure function of the chain
	again := Membership(c)
	for i := range probs {
		if probs[i] != again[i] {
			tst.Fatal("Membership is not deterministic")
		}
	}
}

func TestMembershipEmpty(tst *testing.T) {
	c := sample.NewChain([]string{"m"})
	if probs := Membership(c); probs != nil {
		tst.Error("Expected nil for an empty chain, got", probs)
	}
}

// lineChain builds a chain with known line samples and no auxiliary
// vectors.
func lineChain(ms, bs []float64) *sample.Chain {
	c := sample.NewChain([]string{"m", "b"})
	for i := range ms {
		c.Append([]float64{ms[i], bs[i]}, 0, nil, nil)
	}
	return c
}

func TestSummarize(tst *testing.T) {
	c := lineChain([]float64{1, 2, 3, 4, 5}, []float64{0, 0, 0, 0, 10})
	s := Summarize(c, 0.9)
	if len(s) != 2 {
		tst.Fatal("Expected two parameter summaries")
	}
	if s[0].Name != "m" || s[1].Name != "b" {
		tst.Error("Incorrect parameter names")
	}
	if math.Abs(s[0].Mean-3) > smallDiff {
		tst.Error("Expected mean 3, got", s[0].Mean)
	}
	if math.Abs(s[0].Median-3) > smallDiff {
		tst.Error("Expected median 3, got", s[0].Median)
	}
	if s[0].Lower >= s[0].Median || s[0].Upper <= s[0].Median {
		tst.Error("Interval does not cover the median")
	}
	if math.Abs(s[1].Mean-2) > smallDiff {
		tst.Error("Expected mean 2, got", s[1].Mean)
	}
}

func TestCovariance(tst *testing.T) {
	// perfectly anticorrelated columns
	c := lineChain([]float64{1, 2, 3}, []float64{3, 2, 1})
	cov := Covariance(c)
	if got := cov.At(0, 0); math.Abs(got-1) > smallDiff {
		tst.Error("Expected variance 1, got", got)
	}
	if got := cov.At(1, 1); math.Abs(got-1) > smallDiff {
		tst.Error("Expected variance 1, got", got)
	}
	if got := cov.At(0, 1); math.Abs(got+1) > smallDiff {
		tst.Error("Expected covariance -1, got", got)
	}
	if cov.At(0, 1) != cov.At(1, 0) {
		tst.Error("Covariance matrix is not symmetric")
	}
}

func TestFitBand(tst *testing.T) {
	// identical samples collapse the band to the line itself
	c := lineChain([]float64{2, 2, 2}, []float64{1, 1, 1})
	xs := []float64{-1, 0, 1}
	med, lo, hi := FitBand(c, xs, 0.68)
	for i, x := range xs {
		want := 2*x + 1
		if math.Abs(med[i]-want) > smallDiff ||
			math.Abs(lo[i]-want) > smallDiff ||
			math.Abs(hi[i]-want) > smallDiff {
			tst.Errorf("x=%v: band (%v, %v, %v), expected %v",
				x, lo[i], med[i], hi[i], want)
		}
	}

	// with spread the band must bracket the median
	c = lineChain([]float64{1, 2, 3}, []float64{0, 0, 0})
	med, lo, hi = FitBand(c, []float64{1}, 0.68)
	if !(lo[0] < med[0] && med[0] < hi[0]) {
		tst.Errorf("Band (%v, %v, %v) is not ordered", lo[0], med[0], hi[0])
	}
}

func TestGaussianBand(tst *testing.T) {
	c := lineChain([]float64{1, 3}, []float64{0, 0})
	mean, lo, hi := GaussianBand(c, []float64{1}, 0.6826894921370859)
	if math.Abs(mean[0]-2) > smallDiff {
		tst.Error("Expected mean 2, got", mean[0])
	}
	// sd of {1, 3} is sqrt(2), one sigma band
	sd := math.Sqrt(2)
	if math.Abs(hi[0]-(2+sd)) > 1e-9 || math.Abs(lo[0]-(2-sd)) > 1e-9 {
		tst.Errorf("Band (%v, %v), expected (%v, %v)", lo[0], hi[0], 2-sd, 2+sd)
	}
}
