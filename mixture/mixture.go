// Package mixture implements the marginalized foreground/background
// mixture likelihood for robust line fitting. The foreground model is
// a straight line with known Gaussian noise, the background model is a
// single Gaussian responsible for the outliers; the discrete
// per-point membership indicator is summed out analytically.
package mixture

import (
	"math"

	"bitbucket.org/Davydov/mixfit/data"
	"bitbucket.org/Davydov/mixfit/dist"
	"bitbucket.org/Davydov/mixfit/sample"
)

// Bounds are the flat-prior parameter bounds. The mixture weight Q is
// always in (0, 1) and is not configurable.
type Bounds struct {
	SlopeMin, SlopeMax         float64
	InterceptMin, InterceptMax float64
	MeanMin, MeanMax           float64
	LnVMin, LnVMax             float64
}

// DefaultBounds returns the demo bounds.
func DefaultBounds() *Bounds {
	return &Bounds{
		SlopeMin: -5, SlopeMax: 5,
		InterceptMin: -5, InterceptMax: 5,
		MeanMin: -5, MeanMax: 5,
		LnVMin: -10, LnVMax: 10,
	}
}

// Model is the five-parameter mixture model. The parameter vector is
// (m, b, Q, M, lnV): slope, intercept, foreground weight, outlier mean
// and log outlier variance.
type Model struct {
	data   *data.Dataset
	bounds *Bounds

	slope     float64
	intercept float64
	q         float64
	mean      float64
	lnv       float64

	// lfg and lbg hold the weighted per-point log-likelihoods
	// (foreground + log Q, background + log(1-Q)) of the last
	// Likelihood call.
	lfg []float64
	lbg []float64

	fpg        sample.FloatParameterGenerator
	parameters sample.FloatParameters
}

// New creates a model for the dataset with a least-squares starting
// point strictly inside the bounds.
func New(d *data.Dataset, bounds *Bounds) (m *Model) {
	m = &Model{
		data:   d,
		bounds: bounds,
		lfg:    make([]float64, len(d.Points)),
		lbg:    make([]float64, len(d.Points)),
		fpg:    sample.BasicFloatParameterGenerator,
	}
	m.guess()
	m.addParameters()
	return
}

// SetAdaptive switches the model to adaptive parameters.
func (m *Model) SetAdaptive(as *sample.AdaptiveSettings) {
	m.fpg = as.ParameterGenerator
	m.parameters = nil
	m.addParameters()
}

// Copy returns an independent model sharing the dataset.
func (m *Model) Copy() sample.Model {
	nm := &Model{
		data:      m.data,
		bounds:    m.bounds,
		slope:     m.slope,
		intercept: m.intercept,
		q:         m.q,
		mean:      m.mean,
		lnv:       m.lnv,
		lfg:       make([]float64, len(m.data.Points)),
		lbg:       make([]float64, len(m.data.Points)),
		fpg:       m.fpg,
	}
	nm.addParameters()
	return nm
}

// addParameters creates all the parameters.
func (m *Model) addParameters() {
	b := m.bounds

	par := m.fpg(&m.slope, "m")
	par.SetMin(b.SlopeMin)
	par.SetMax(b.SlopeMax)
	par.SetPriorFunc(sample.UniformPrior(b.SlopeMin, b.SlopeMax, false, false))
	par.SetProposalFunc(sample.NormalProposal(0.1))
	m.parameters.Append(par)

	par = m.fpg(&m.intercept, "b")
	par.SetMin(b.InterceptMin)
	par.SetMax(b.InterceptMax)
	par.SetPriorFunc(sample.UniformPrior(b.InterceptMin, b.InterceptMax, false, false))
	par.SetProposalFunc(sample.NormalProposal(0.1))
	m.parameters.Append(par)

	par = m.fpg(&m.q, "Q")
	par.SetMin(0)
	par.SetMax(1)
	par.SetPriorFunc(sample.UniformPrior(0, 1, false, false))
	par.SetProposalFunc(sample.NormalProposal(0.05))
	m.parameters.Append(par)

	par = m.fpg(&m.mean, "M")
	par.SetMin(b.MeanMin)
	par.SetMax(b.MeanMax)
	par.SetPriorFunc(sample.UniformPrior(b.MeanMin, b.MeanMax, false, false))
	par.SetProposalFunc(sample.NormalProposal(0.1))
	m.parameters.Append(par)

	par = m.fpg(&m.lnv, "lnV")
	par.SetMin(b.LnVMin)
	par.SetMax(b.LnVMax)
	par.SetPriorFunc(sample.UniformPrior(b.LnVMin, b.LnVMax, false, false))
	par.SetProposalFunc(sample.NormalProposal(0.2))
	m.parameters.Append(par)
}

// GetFloatParameters returns the parameter storage.
func (m *Model) GetFloatParameters() sample.FloatParameters {
	return m.parameters
}

// inside clamps v strictly inside [min, max] keeping a five percent
// margin from the violated boundary.
func inside(v, min, max float64) float64 {
	margin := 0.05 * (max - min)
	if v <= min {
		return min + margin
	}
	if v >= max {
		return max - margin
	}
	return v
}

// guess sets the parameters to an ordinary least-squares starting
// point. The sampler requires a point strictly inside the bounds.
func (m *Model) guess() {
	xs := m.data.Xs()
	ys := m.data.Ys()
	xm := dist.Mean(xs)
	ym := dist.Mean(ys)
	var sxx, sxy float64
	for i := range xs {
		sxx += (xs[i] - xm) * (xs[i] - xm)
		sxy += (xs[i] - xm) * (ys[i] - ym)
	}
	slope := 0.0
	if sxx > 0 {
		slope = sxy / sxx
	}
	b := m.bounds
	m.slope = inside(slope, b.SlopeMin, b.SlopeMax)
	m.intercept = inside(ym-m.slope*xm, b.InterceptMin, b.InterceptMax)
	m.q = 0.7
	m.mean = inside(ym, b.MeanMin, b.MeanMax)
	m.lnv = inside(math.Log(dist.Variance(ys)), b.LnVMin, b.LnVMax)
}

// Likelihood returns the total log-probability: the flat log-prior
// plus the sum over points of the marginalized mixture
// log-likelihood. Outside the bounds it returns -Inf and zeroes the
// auxiliary vectors; such states are discarded by the sampler and the
// vectors are never consumed.
func (m *Model) Likelihood() float64 {
	lprior := 0.0
	for _, par := range m.parameters {
		lp := par.Prior()
		if math.IsInf(lp, -1) {
			for i := range m.lfg {
				m.lfg[i] = 0
				m.lbg[i] = 0
			}
			return math.Inf(-1)
		}
		lprior += lp
	}

	lnQ := math.Log(m.q)
	ln1Q := math.Log(1 - m.q)
	vbg := math.Exp(m.lnv)

	res := lprior
	for i, p := range m.data.Points {
		r := (m.slope*p.X + m.intercept - p.Y) / p.Sigma
		lfg := -0.5*(r*r+2*math.Log(p.Sigma)) + lnQ

		v := vbg + p.Sigma*p.Sigma
		d := m.mean - p.Y
		lbg := -0.5*(d*d/v+math.Log(v)) + ln1Q

		m.lfg[i] = lfg
		m.lbg[i] = lbg
		res += dist.LogAddExp(lfg, lbg)
	}
	return res
}

// Blob returns the weighted per-point log-likelihood vectors of the
// last Likelihood call. The slices are reused by the next call.
func (m *Model) Blob() (fg, bg []float64) {
	return m.lfg, m.lbg
}

// Membership returns, for the current parameter values, the posterior
// probability that each point belongs to the foreground model:
// Q p_fg / (Q p_fg + (1-Q) p_bg). It returns nil if the current point
// is outside the bounds.
func (m *Model) Membership() []float64 {
	if math.IsInf(m.Likelihood(), -1) {
		return nil
	}
	res := make([]float64, len(m.lfg))
	for i := range res {
		res[i] = math.Exp(m.lfg[i] - dist.LogAddExp(m.lfg[i], m.lbg[i]))
	}
	return res
}

// NPoints returns the number of observations.
func (m *Model) NPoints() int {
	return len(m.data.Points)
}
