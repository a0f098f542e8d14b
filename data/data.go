// Package data generates synthetic contaminated datasets for the
// robust line-fitting demo.
package data

import (
	"math"
	"math/rand"
	"sort"
)

// Observation is a single measured point with a known noise scale.
type Observation struct {
	X     float64
	Y     float64
	Sigma float64
}

// Dataset is an ordered sequence of observations together with the
// ground-truth outlier mask. The mask is used for evaluation and plots
// only; the model never sees it.
type Dataset struct {
	Points  []Observation
	Outlier []bool
}

// Config describes the generating process.
type Config struct {
	// N is the number of points.
	N int
	// Slope and Intercept are the true line parameters.
	Slope     float64
	Intercept float64
	// Frac is the prior probability of a point being drawn from the
	// line (the foreground model).
	Frac float64
	// OutlierMean and OutlierVariance describe the contaminating
	// Gaussian.
	OutlierMean     float64
	OutlierVariance float64
	// Sigma is the fixed per-point noise scale.
	Sigma float64
	// XMin and XMax bound the uniform x draws.
	XMin float64
	XMax float64
	// Seed initializes the private random source.
	Seed int64
}

// DefaultConfig returns the documented demo scenario.
func DefaultConfig() *Config {
	return &Config{
		N:               15,
		Slope:           1,
		Intercept:       0,
		Frac:            0.8,
		OutlierMean:     0,
		OutlierVariance: 1,
		Sigma:           0.2,
		XMin:            -2,
		XMax:            2,
		Seed:            12,
	}
}

// Generate draws a dataset. X values are uniform in [XMin, XMax] and
// sorted, y values follow the line with Gaussian noise, and every
// point is independently replaced by an outlier draw with probability
// 1-Frac. The result is reproducible bit-for-bit given the seed.
func Generate(cfg *Config) *Dataset {
	rng := rand.New(rand.NewSource(cfg.Seed))

	xs := make([]float64, cfg.N)
	for i := range xs {
		xs[i] = cfg.XMin + rng.Float64()*(cfg.XMax-cfg.XMin)
	}
	sort.Float64s(xs)

	d := &Dataset{
		Points:  make([]Observation, cfg.N),
		Outlier: make([]bool, cfg.N),
	}
	for i, x := range xs {
		y := cfg.Slope*x + cfg.Intercept + rng.NormFloat64()*cfg.Sigma
		d.Points[i] = Observation{X: x, Y: y, Sigma: cfg.Sigma}
	}
	osd := math.Sqrt(cfg.OutlierVariance + cfg.Sigma*cfg.Sigma)
	for i := range d.Points {
		if rng.Float64() > cfg.Frac {
			d.Outlier[i] = true
			d.Points[i].Y = cfg.OutlierMean + rng.NormFloat64()*osd
		}
	}
	return d
}

// Xs returns the x values.
func (d *Dataset) Xs() (xs []float64) {
	xs = make([]float64, len(d.Points))
	for i, p := range d.Points {
		xs[i] = p.X
	}
	return
}

// Ys returns the y values.
func (d *Dataset) Ys() (ys []float64) {
	ys = make([]float64, len(d.Points))
	for i, p := range d.Points {
		ys[i] = p.Y
	}
	return
}

// NOutliers returns the number of true outliers.
func (d *Dataset) NOutliers() (n int) {
	for _, o := range d.Outlier {
		if o {
			n++
		}
	}
	return
}
