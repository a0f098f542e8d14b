package mixture

import (
	"math"
	"testing"

	"bitbucket.org/Davydov/mixfit/data"
	"bitbucket.org/Davydov/mixfit/dist"
)

const smallDiff = 1e-12

// testDataset returns a small fixed dataset.
func testDataset() *data.Dataset {
	return &data.Dataset{
		Points: []data.Observation{
			{X: -1.3, Y: -1.1, Sigma: 0.2},
			{X: -0.2, Y: 0.9, Sigma: 0.2},
			{X: 0.4, Y: 0.3, Sigma: 0.2},
			{X: 1.1, Y: 1.2, Sigma: 0.2},
			{X: 1.9, Y: -0.4, Sigma: 0.2},
		},
		Outlier: []bool{false, true, false, false, true},
	}
}

// linearMixture computes the per-point mixture likelihood directly in
// linear space.
func linearMixture(d *data.Dataset, m, b, q, mean, lnv float64) []float64 {
	res := make([]float64, len(d.Points))
	for i, p := range d.Points {
		r := (m*p.X + b - p.Y) / p.Sigma
		pfg := math.Exp(-r*r/2) / p.Sigma
		v := math.Exp(lnv) + p.Sigma*p.Sigma
		dd := mean - p.Y
		pbg := math.Exp(-dd*dd/v/2) / math.Sqrt(v)
		res[i] = q*pfg + (1-q)*pbg
	}
	return res
}

func TestMixtureIdentity(tst *testing.T) {
	d := testDataset()
	model := New(d, DefaultBounds())
	theta := []float64{1.2, -0.1, 0.7, 0.0, 0.5}
	par := model.GetFloatParameters()
	err := par.SetValues(theta)
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	if model.NPoints() != len(d.Points) {
		tst.Fatal("Incorrect number of points")
	}

	l := model.Likelihood()
	if math.IsInf(l, 0) || math.IsNaN(l) {
		tst.Fatal("Expected finite likelihood, got", l)
	}

	direct := linearMixture(d, theta[0], theta[1], theta[2], theta[3], theta[4])
	fg, bg := model.Blob()
	sum := 0.0
	for i := range direct {
		got := dist.LogAddExp(fg[i], bg[i])
		want := math.Log(direct[i])
		if math.Abs(got-want) > smallDiff {
			tst.Errorf("Point %d: got %v, expected %v", i, got, want)
		}
		sum += want
	}

	// flat prior constant: -log of every bound range
	lprior := -3*math.Log(10) - math.Log(20)
	if math.Abs(l-(lprior+sum)) > smallDiff {
		tst.Errorf("Total logprob %v, expected %v", l, lprior+sum)
	}
}

func TestOutOfBounds(tst *testing.T) {
	model := New(testDataset(), DefaultBounds())
	cases := [][]float64{
		{6, 0, 0.5, 0, 0},
		{1, -5.5, 0.5, 0, 0},
		{1, 0, 0, 0, 0},
		{1, 0, 1, 0, 0},
		{1, 0, 0.5, 7, 0},
		{1, 0, 0.5, 0, 11},
	}
	for _, theta := range cases {
		par := model.GetFloatParameters()
	err := par.SetValues(theta)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		l := model.Likelihood()
		if !math.IsInf(l, -1) {
			tst.Errorf("theta=%v: expected -Inf, got %v", theta, l)
		}
		fg, bg := model.Blob()
		for i := range fg {
			if fg[i] != 0 || bg[i] != 0 {
				tst.Errorf("theta=%v: auxiliary vectors not zeroed", theta)
				break
			}
		}
	}
}

func TestMembership(tst *testing.T) {
	d := testDataset()
	model := New(d, DefaultBounds())
	theta := []float64{1.0, 0.0, 0.8, 0.0, 0.0}
	par := model.GetFloatParameters()
	err := par.SetValues(theta)
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	probs := model.Membership()
	if probs == nil {
		tst.Fatal("Expected membership probabilities")
	}
	direct := linearMixture(d, theta[0], theta[1], theta[2], theta[3], theta[4])
	for i, p := range probs {
		if p < 0 || p > 1 {
			tst.Errorf("Point %d: probability %v outside [0, 1]", i, p)
		}
		pt := d.Points[i]
		r := (theta[0]*pt.X + theta[1] - pt.Y) / pt.Sigma
		pfg := math.Exp(-r*r/2) / pt.Sigma
		want := theta[2] * pfg / direct[i]
		if math.Abs(p-want) > smallDiff {
			tst.Errorf("Point %d: got %v, expected %v", i, p, want)
		}
	}
}

func TestGuessInBounds(tst *testing.T) {
	cfg := data.DefaultConfig()
	for seed := int64(0); seed < 10; seed++ {
		cfg.Seed = seed
		model := New(data.Generate(cfg), DefaultBounds())
		par := model.GetFloatParameters()
		if !par.InRange() {
			tst.Errorf("seed=%v: starting point outside the bounds", seed)
		}
		l := model.Likelihood()
		if math.IsInf(l, 0) || math.IsNaN(l) {
			tst.Errorf("seed=%v: starting likelihood %v", seed, l)
		}
	}
}

func TestCopy(tst *testing.T) {
	model := New(testDataset(), DefaultBounds())
	theta := []float64{1.2, -0.1, 0.7, 0.0, 0.5}
	par := model.GetFloatParameters()
	if err := par.SetValues(theta); err != nil {
		tst.Fatal("Error: ", err)
	}
	l := model.Likelihood()

	cp := model.Copy()
	cpar := cp.GetFloatParameters()
	if cl := cp.Likelihood(); math.Abs(cl-l) > smallDiff {
		tst.Errorf("Copy likelihood %v, expected %v", cl, l)
	}

	// changing the copy must not affect the original
	cpar[0].Set(2)
	if got := model.GetFloatParameters()[0].Get(); got != theta[0] {
		tst.Errorf("Original changed after modifying the copy: %v", got)
	}
	if got := model.Likelihood(); math.Abs(got-l) > smallDiff {
		tst.Errorf("Original likelihood changed: %v, expected %v", got, l)
	}
}
