package sample

// Model is a probabilistic model the samplers can draw from.
type Model interface {
	// GetFloatParameters returns the model parameter storage.
	GetFloatParameters() FloatParameters
	// Copy returns an independent copy of the model sharing the
	// observed data.
	Copy() Model
	// Likelihood returns the log-posterior density of the current
	// parameter values up to a constant; -Inf outside the bounds.
	Likelihood() float64
	// Blob returns the auxiliary per-observation vectors of the
	// last Likelihood call (weighted foreground and background
	// log-likelihoods). The slices are owned by the model and
	// overwritten by the next Likelihood call.
	Blob() (fg, bg []float64)
}

// Sample is one retained posterior draw together with its auxiliary
// vectors.
type Sample struct {
	Params  []float64
	LogProb float64
	// LogFg and LogBg are the weighted per-observation
	// log-likelihoods (foreground + log Q, background + log(1-Q)).
	LogFg []float64
	LogBg []float64
}

// Chain accumulates retained samples. It is append-only during
// sampling and read-only afterwards.
type Chain struct {
	Names   []string
	Samples []Sample
}

// NewChain creates an empty chain for the given parameter names.
func NewChain(names []string) *Chain {
	return &Chain{Names: names}
}

// Append stores a copy of the current state and its auxiliary
// vectors.
func (c *Chain) Append(params []float64, lp float64, fg, bg []float64) {
	s := Sample{
		Params:  make([]float64, len(params)),
		LogProb: lp,
		LogFg:   make([]float64, len(fg)),
		LogBg:   make([]float64, len(bg)),
	}
	copy(s.Params, params)
	copy(s.LogFg, fg)
	copy(s.LogBg, bg)
	c.Samples = append(c.Samples, s)
}

// Len returns the number of retained samples.
func (c *Chain) Len() int {
	return len(c.Samples)
}

// Column returns the values of parameter i over all samples.
func (c *Chain) Column(i int) []float64 {
	col := make([]float64, len(c.Samples))
	for j, s := range c.Samples {
		col[j] = s.Params[i]
	}
	return col
}

// Index returns the column index of a parameter name or -1.
func (c *Chain) Index(name string) int {
	for i, n := range c.Names {
		if n == name {
			return i
		}
	}
	return -1
}
