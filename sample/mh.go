package sample

import (
	"math"
	"math/rand"

	"bitbucket.org/Davydov/mixfit/checkpoint"
)

// MH is a single-chain Metropolis-Hastings sampler updating one
// parameter at a time.
type MH struct {
	BaseSampler
	// AccPeriod is the acceptance rate reporting period.
	AccPeriod int
	vals      []float64
}

// NewMH creates a new MH sampler.
func NewMH() (m *MH) {
	m = &MH{
		BaseSampler: BaseSampler{
			repPeriod: 10,
		},
		AccPeriod: 200,
	}
	return
}

// Run performs burnin discarded iterations followed by the production
// iterations whose states and auxiliary vectors are retained.
func (m *MH) Run(burnin, iterations int) {
	m.maxL = math.Inf(-1)
	m.burnin, m.iterations = burnin, iterations
	m.restoreCheckpoint()
	l := m.Likelihood()
	m.calls++
	if math.IsInf(l, -1) {
		log.Fatal("Starting point is outside the parameter bounds")
	}
	fg, bg := m.Blob()
	curFg := make([]float64, len(fg))
	curBg := make([]float64, len(bg))
	copy(curFg, fg)
	copy(curBg, bg)
	m.updateMaxL(l, m.parameters)

	m.PrintHeader()
	accepted := 0
	lastReported := -1
	total := burnin + iterations
Iter:
	for m.i = 0; m.i < total; m.i++ {
		if m.i > 0 && m.i%m.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%", 100*float64(accepted)/float64(m.AccPeriod))
			accepted = 0
		}
		if m.i == burnin {
			log.Info("Finished burn-in")
		}

		if m.i%m.repPeriod == 0 {
			log.Debugf("%d: L=%f", m.i, l)
			m.PrintLine(m.parameters, l)
			lastReported = m.i
		}

		p := rand.Intn(len(m.parameters))
		par := m.parameters[p]
		par.Propose()
		newL := m.Likelihood()
		m.calls++
		m.proposed++

		// Likelihood is the full log-posterior, the prior needs no
		// separate term.
		a := math.Exp(newL - l)
		if a > 1 || rand.Float64() < a {
			l = newL
			par.Accept(m.i)
			accepted++
			m.accepted++
			nfg, nbg := m.Blob()
			copy(curFg, nfg)
			copy(curBg, nbg)
			m.updateMaxL(l, m.parameters)
		} else {
			par.Reject()
		}

		if m.i >= burnin {
			m.vals = m.parameters.Values(m.vals)
			m.chain.Append(m.vals, l, curFg, curBg)
		}

		if m.ckp != nil && m.ckp.Old() {
			m.saveCheckpoint(l, false)
		}

		if m.stopRequested() {
			break Iter
		}
	}

	if m.i != lastReported {
		m.PrintLine(m.parameters, l)
	}
	m.saveCheckpoint(l, true)
	log.Info("Finished sampling")
	m.PrintFinal(m.parameters)
}

// Summary returns the run summary.
func (m *MH) Summary() *Summary {
	return m.summary("mh")
}

// saveCheckpoint stores the current state.
func (m *MH) saveCheckpoint(l float64, final bool) {
	if m.ckp == nil {
		return
	}
	st := &checkpoint.State{
		Iter:    m.i,
		LogProb: []float64{l},
		Walkers: [][]float64{m.parameters.Values(nil)},
		Final:   final,
	}
	m.ckp.Save(st)
}

// restoreCheckpoint sets the starting point from an unfinished
// checkpoint if one is present.
func (m *MH) restoreCheckpoint() {
	if m.ckp == nil {
		return
	}
	st, err := m.ckp.Load()
	if err != nil {
		log.Error("Error loading checkpoint:", err)
		return
	}
	if st == nil || st.Final || len(st.Walkers) != 1 ||
		len(st.Walkers[0]) != len(m.parameters) {
		return
	}
	if !m.parameters.ValuesInRange(st.Walkers[0]) {
		log.Warning("Checkpoint state outside the bounds, ignoring")
		return
	}
	log.Noticef("Resuming from checkpoint (iter=%v)", st.Iter)
	m.parameters.SetValues(st.Walkers[0])
}
