package sample

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/mixfit/checkpoint"
)

// log is the global logging variable.
var log = logging.MustGetLogger("sample")

// Sampler draws from the posterior distribution of a model.
type Sampler interface {
	SetModel(Model)
	SetReportPeriod(period int)
	SetTrajectoryOutput(io.Writer)
	SetCheckpointIO(*checkpoint.CheckpointIO)
	WatchSignals(...os.Signal)
	// Run performs a discarded burn-in phase followed by a
	// production phase whose samples are retained.
	Run(burnin, iterations int)
	Chain() *Chain
	Summary() *Summary
}

// Summary stores sampler run information for the JSON report.
type Summary struct {
	// Method is the sampler name.
	Method string `json:"method"`
	// Burnin is the number of discarded iterations.
	Burnin int `json:"burnin"`
	// Iterations is the number of production iterations.
	Iterations int `json:"iterations"`
	// Calls is the number of likelihood calls.
	Calls int `json:"likelihoodCalls"`
	// AcceptanceRate is the overall acceptance rate.
	AcceptanceRate float64 `json:"acceptanceRate"`
	// MaxLnL is the maximum log-probability encountered.
	MaxLnL float64 `json:"maxLnL"`
	// MaxLParameters are the parameter values at MaxLnL.
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	// Samples is the number of retained samples.
	Samples int `json:"samples"`
}

// BaseSampler implements bookkeeping shared by the sampler drivers.
type BaseSampler struct {
	Model
	parameters FloatParameters
	i          int
	burnin     int
	iterations int
	calls      int
	accepted   int
	proposed   int
	maxL       float64
	maxLPar    []float64
	repPeriod  int
	sig        chan os.Signal
	out        io.Writer
	chain      *Chain
	ckp        *checkpoint.CheckpointIO
	// Quiet disables trajectory output.
	Quiet bool
}

// SetModel sets the model to sample from.
func (b *BaseSampler) SetModel(m Model) {
	b.Model = m
	b.parameters = m.GetFloatParameters()
	b.chain = NewChain(b.parameters.Names(nil))
}

// SetReportPeriod sets the trajectory reporting period.
func (b *BaseSampler) SetReportPeriod(period int) {
	b.repPeriod = period
}

// SetTrajectoryOutput sets the writer for the trajectory.
func (b *BaseSampler) SetTrajectoryOutput(w io.Writer) {
	b.out = w
}

// SetCheckpointIO enables checkpointing.
func (b *BaseSampler) SetCheckpointIO(ckp *checkpoint.CheckpointIO) {
	b.ckp = ckp
}

// WatchSignals makes the sampler stop gracefully on a signal.
func (b *BaseSampler) WatchSignals(sigs ...os.Signal) {
	b.sig = make(chan os.Signal, 1)
	signal.Notify(b.sig, sigs...)
}

// Chain returns the accumulated chain.
func (b *BaseSampler) Chain() *Chain {
	return b.chain
}

// stopRequested returns true if a watched signal arrived.
func (b *BaseSampler) stopRequested() bool {
	if b.sig == nil {
		return false
	}
	select {
	case s := <-b.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
	}
	return false
}

// output returns the trajectory writer.
func (b *BaseSampler) output() io.Writer {
	if b.out == nil {
		return os.Stdout
	}
	return b.out
}

// PrintHeader prints the trajectory header.
func (b *BaseSampler) PrintHeader() {
	if !b.Quiet {
		fmt.Fprintf(b.output(), "iteration\tlikelihood\t%s\n", b.parameters.NamesString())
	}
}

// PrintLine prints one trajectory line.
func (b *BaseSampler) PrintLine(par FloatParameters, l float64) {
	if !b.Quiet {
		fmt.Fprintf(b.output(), "%d\t%f\t%s\n", b.i, l, par.ValuesString())
	}
}

// PrintFinal reports the final parameter values.
func (b *BaseSampler) PrintFinal(par FloatParameters) {
	if !b.Quiet {
		for _, p := range par {
			log.Noticef("%s=%s", p.Name(), p.String())
		}
	}
}

// updateMaxL keeps track of the best state seen so far.
func (b *BaseSampler) updateMaxL(l float64, par FloatParameters) {
	if l > b.maxL {
		b.maxL = l
		b.maxLPar = par.Values(b.maxLPar)
	}
}

// summary fills the common summary fields.
func (b *BaseSampler) summary(method string) *Summary {
	s := &Summary{
		Method:     method,
		Burnin:     b.burnin,
		Iterations: b.iterations,
		Calls:      b.calls,
		MaxLnL:     b.maxL,
		Samples:    b.chain.Len(),
	}
	if b.proposed > 0 {
		s.AcceptanceRate = float64(b.accepted) / float64(b.proposed)
	}
	if b.maxLPar != nil {
		s.MaxLParameters = make(map[string]float64, len(b.maxLPar))
		for i, par := range b.parameters {
			s.MaxLParameters[par.Name()] = b.maxLPar[i]
		}
	}
	return s
}
