// Package posterior summarizes sampler chains: per-point foreground
// membership probabilities, marginal parameter statistics and
// credible bands for the fitted line.
package posterior

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/mixfit/dist"
	"bitbucket.org/Davydov/mixfit/sample"
)

// Membership averages the per-sample foreground membership
// probabilities over the chain. The result is a Monte Carlo estimate
// of the posterior probability that each point belongs to the
// foreground model, marginalized over the sampled parameters. It is a
// pure function of the stored samples.
func Membership(c *sample.Chain) []float64 {
	if c.Len() == 0 {
		return nil
	}
	k := len(c.Samples[0].LogFg)
	res := make([]float64, k)
	for _, s := range c.Samples {
		for i := 0; i < k; i++ {
			res[i] += math.Exp(s.LogFg[i] - dist.LogAddExp(s.LogFg[i], s.LogBg[i]))
		}
	}
	floats.Scale(1/float64(c.Len()), res)
	return res
}

// ParameterSummary stores marginal posterior statistics for one
// parameter.
type ParameterSummary struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	// Lower and Upper are the central credible interval bounds.
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Summarize computes marginal statistics for every parameter with a
// central credible interval of the given level.
func Summarize(c *sample.Chain, level float64) []ParameterSummary {
	res := make([]ParameterSummary, len(c.Names))
	alpha := (1 - level) / 2
	for i, name := range c.Names {
		col := c.Column(i)
		res[i] = ParameterSummary{
			Name:   name,
			Mean:   dist.Mean(col),
			Median: dist.Quantile(col, 0.5),
			Lower:  dist.Quantile(col, alpha),
			Upper:  dist.Quantile(col, 1-alpha),
		}
	}
	return res
}

// Covariance returns the posterior covariance matrix of the
// parameters.
func Covariance(c *sample.Chain) *mat64.SymDense {
	np := len(c.Names)
	n := c.Len()
	means := make([]float64, np)
	for i := 0; i < np; i++ {
		means[i] = dist.Mean(c.Column(i))
	}
	cov := mat64.NewSymDense(np, nil)
	for i := 0; i < np; i++ {
		for j := i; j < np; j++ {
			var s float64
			for _, smp := range c.Samples {
				s += (smp.Params[i] - means[i]) * (smp.Params[j] - means[j])
			}
			cov.SetSym(i, j, s/float64(n-1))
		}
	}
	return cov
}

// FitBand evaluates the posterior median line and the central
// empirical credible band of m*x+b at the given x values.
func FitBand(c *sample.Chain, xs []float64, level float64) (med, lo, hi []float64) {
	mi := c.Index("m")
	bi := c.Index("b")
	if mi < 0 || bi < 0 {
		panic("chain without line parameters")
	}
	alpha := (1 - level) / 2
	med = make([]float64, len(xs))
	lo = make([]float64, len(xs))
	hi = make([]float64, len(xs))
	vals := make([]float64, c.Len())
	for i, x := range xs {
		for j, s := range c.Samples {
			vals[j] = s.Params[mi]*x + s.Params[bi]
		}
		med[i] = dist.Quantile(vals, 0.5)
		lo[i] = dist.Quantile(vals, alpha)
		hi[i] = dist.Quantile(vals, 1-alpha)
	}
	return
}

// GaussianBand evaluates the mean line with a normal-approximation
// band of the given level: mean(m x + b) +/- z sd(m x + b).
func GaussianBand(c *sample.Chain, xs []float64, level float64) (mean, lo, hi []float64) {
	mi := c.Index("m")
	bi := c.Index("b")
	if mi < 0 || bi < 0 {
		panic("chain without line parameters")
	}
	z := dist.NormalQuantile(0.5 + level/2)
	mean = make([]float64, len(xs))
	lo = make([]float64, len(xs))
	hi = make([]float64, len(xs))
	vals := make([]float64, c.Len())
	for i, x := range xs {
		for j, s := range c.Samples {
			vals[j] = s.Params[mi]*x + s.Params[bi]
		}
		m := dist.Mean(vals)
		sd := math.Sqrt(dist.Variance(vals))
		mean[i] = m
		lo[i] = m - z*sd
		hi[i] = m + z*sd
	}
	return
}
