package sample

import (
	"math"
	"math/rand"

	"bitbucket.org/Davydov/mixfit/checkpoint"
)

// Ensemble is an affine-invariant ensemble sampler using the stretch
// move of Goodman & Weare (2010). Every walker is an independent copy
// of the model; walkers are initialized by a small normal perturbation
// of the starting point.
type Ensemble struct {
	BaseSampler
	// NWalkers is the ensemble size.
	NWalkers int
	// StretchA is the stretch move scale parameter.
	StretchA float64
	// InitSpread is the standard deviation of the initial walker
	// perturbation.
	InitSpread float64
	// AccPeriod is the acceptance rate reporting period.
	AccPeriod int

	models  []Model
	wpar    []FloatParameters
	lp      []float64
	fg      [][]float64
	bg      [][]float64
	scratch Model
	spar    FloatParameters
	prop    []float64
	xk, xj  []float64
	resumed bool
}

// NewEnsemble creates an ensemble sampler with nwalkers walkers.
func NewEnsemble(nwalkers int) (e *Ensemble) {
	e = &Ensemble{
		BaseSampler: BaseSampler{
			repPeriod: 10,
		},
		NWalkers:   nwalkers,
		StretchA:   2,
		InitSpread: 1e-2,
		AccPeriod:  200,
	}
	return
}

// initWalkers creates the walker population around the current
// starting point.
func (e *Ensemble) initWalkers() {
	if !e.parameters.InRange() {
		log.Fatal("Starting point is outside the parameter bounds")
	}
	ndim := len(e.parameters)
	e.models = make([]Model, e.NWalkers)
	e.wpar = make([]FloatParameters, e.NWalkers)
	e.lp = make([]float64, e.NWalkers)
	e.fg = make([][]float64, e.NWalkers)
	e.bg = make([][]float64, e.NWalkers)
	e.prop = make([]float64, ndim)
	e.xk = make([]float64, ndim)
	e.xj = make([]float64, ndim)

	e.scratch = e.Model.Copy()
	e.spar = e.scratch.GetFloatParameters()

	start := e.parameters.Values(nil)
	vals := make([]float64, ndim)
	for k := 0; k < e.NWalkers; k++ {
		if k == 0 {
			e.models[k] = e.Model
		} else {
			e.models[k] = e.Model.Copy()
		}
		e.wpar[k] = e.models[k].GetFloatParameters()
		if k > 0 {
			ok := false
			for attempt := 0; attempt < 1000; attempt++ {
				for d := range vals {
					vals[d] = start[d] + rand.NormFloat64()*e.InitSpread
				}
				if e.wpar[k].ValuesInRange(vals) {
					e.wpar[k].SetValues(vals)
					ok = true
					break
				}
			}
			if !ok {
				log.Fatal("Could not initialize walkers inside the parameter bounds")
			}
		}
	}

	e.restoreCheckpoint()

	for k := 0; k < e.NWalkers; k++ {
		e.lp[k] = e.models[k].Likelihood()
		e.calls++
		if math.IsInf(e.lp[k], -1) {
			log.Fatal("Walker initialized outside the parameter bounds")
		}
		fg, bg := e.models[k].Blob()
		e.fg[k] = make([]float64, len(fg))
		e.bg[k] = make([]float64, len(bg))
		copy(e.fg[k], fg)
		copy(e.bg[k], bg)
	}
}

// step advances every walker by one stretch move; with retain the
// resulting states are appended to the chain.
func (e *Ensemble) step(retain bool) (accepted int) {
	ndim := len(e.prop)
	for k := 0; k < e.NWalkers; k++ {
		j := RandOther(k, e.NWalkers)
		z := square((e.StretchA-1)*rand.Float64()+1) / e.StretchA
		e.wpar[k].Values(e.xk)
		e.wpar[j].Values(e.xj)
		for d := 0; d < ndim; d++ {
			e.prop[d] = e.xj[d] + z*(e.xk[d]-e.xj[d])
		}
		e.proposed++

		if e.spar.ValuesInRange(e.prop) {
			e.spar.SetValues(e.prop)
			newL := e.scratch.Likelihood()
			e.calls++
			lnq := float64(ndim-1)*math.Log(z) + newL - e.lp[k]
			if lnq >= 0 || math.Log(rand.Float64()) < lnq {
				e.wpar[k].SetValues(e.prop)
				e.lp[k] = newL
				fg, bg := e.scratch.Blob()
				copy(e.fg[k], fg)
				copy(e.bg[k], bg)
				e.accepted++
				accepted++
				e.updateMaxL(newL, e.wpar[k])
			}
		}

		if retain {
			e.chain.Append(e.wpar[k].Values(e.xk), e.lp[k], e.fg[k], e.bg[k])
		}
	}
	return
}

// Run performs the burn-in phase followed by the production phase.
// Burn-in samples are discarded; every production step retains the
// state and auxiliary vectors of all walkers.
func (e *Ensemble) Run(burnin, iterations int) {
	if e.NWalkers < 3 {
		log.Fatal("At least three walkers are required")
	}
	if e.NWalkers < 2*len(e.parameters) {
		log.Warningf("Only %d walkers for %d parameters, consider more",
			e.NWalkers, len(e.parameters))
	}
	e.maxL = math.Inf(-1)
	e.burnin, e.iterations = burnin, iterations
	e.initWalkers()
	if e.resumed {
		log.Notice("Skipping burn-in after checkpoint resume")
		burnin = 0
	}

	e.PrintHeader()
	accepted := 0
	total := burnin + iterations
Iter:
	for e.i = 0; e.i < total; e.i++ {
		if e.i > 0 && e.i%e.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%",
				100*float64(accepted)/float64(e.AccPeriod*e.NWalkers))
			accepted = 0
		}
		if e.i == burnin {
			log.Info("Finished burn-in")
		}
		if e.i%e.repPeriod == 0 {
			log.Debugf("%d: L=%f", e.i, e.lp[0])
			e.PrintLine(e.wpar[0], e.lp[0])
		}

		accepted += e.step(e.i >= burnin)

		if e.ckp != nil && e.ckp.Old() {
			e.saveCheckpoint(false)
		}
		if e.stopRequested() {
			break Iter
		}
	}

	e.saveCheckpoint(true)
	log.Info("Finished sampling")
	log.Noticef("Maximum log-probability: %f", e.maxL)
}

// Summary returns the run summary.
func (e *Ensemble) Summary() *Summary {
	s := e.summary("ensemble")
	return s
}

// saveCheckpoint stores the walker positions.
func (e *Ensemble) saveCheckpoint(final bool) {
	if e.ckp == nil {
		return
	}
	st := &checkpoint.State{
		Iter:    e.i,
		LogProb: make([]float64, e.NWalkers),
		Walkers: make([][]float64, e.NWalkers),
		Final:   final,
	}
	copy(st.LogProb, e.lp)
	for k := 0; k < e.NWalkers; k++ {
		st.Walkers[k] = e.wpar[k].Values(nil)
	}
	e.ckp.Save(st)
}

// restoreCheckpoint replaces the walker positions with the ones from
// an unfinished checkpoint if shapes match.
func (e *Ensemble) restoreCheckpoint() {
	if e.ckp == nil {
		return
	}
	st, err := e.ckp.Load()
	if err != nil {
		log.Error("Error loading checkpoint:", err)
		return
	}
	if st == nil {
		return
	}
	if st.Final {
		log.Notice("Found checkpoint of a finished run, ignoring")
		return
	}
	if len(st.Walkers) != e.NWalkers ||
		len(st.Walkers[0]) != len(e.parameters) {
		log.Warning("Checkpoint shape mismatch, ignoring")
		return
	}
	for k := 0; k < e.NWalkers; k++ {
		if !e.wpar[k].ValuesInRange(st.Walkers[k]) {
			log.Warning("Checkpoint state outside the bounds, ignoring")
			return
		}
	}
	for k := 0; k < e.NWalkers; k++ {
		e.wpar[k].SetValues(st.Walkers[k])
	}
	e.resumed = true
	log.Noticef("Resuming from checkpoint (iter=%v)", st.Iter)
}
