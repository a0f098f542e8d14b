/*

Mixfit demonstrates robust linear regression in the presence of
outliers. It generates a synthetic contaminated dataset, samples the
posterior of the marginalized foreground/background mixture model with
MCMC and reports the posterior probability that each point belongs to
the foreground (linear) model.

The basic usage looks like this:

	mixfit

, this will run the documented demo scenario with the ensemble
sampler.

You can change the sampler and the scenario:

	mixfit --method mh --npoints 50 --frac 0.7

To see all the options run:

	mixfit --help

*/
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"
	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/mixfit/checkpoint"
	"bitbucket.org/Davydov/mixfit/data"
	"bitbucket.org/Davydov/mixfit/mixture"
	"bitbucket.org/Davydov/mixfit/posterior"
	"bitbucket.org/Davydov/mixfit/report"
	"bitbucket.org/Davydov/mixfit/sample"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("mixfit")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("mixfit", "robust line fitting with a marginalized outlier mixture model").Version(version)

	// data generation
	npoints       = app.Flag("npoints", "number of synthetic points").Default("15").Int()
	trueSlope     = app.Flag("slope", "true slope").Default("1.0").Float64()
	trueIntercept = app.Flag("intercept", "true intercept").Default("0.0").Float64()
	trueFrac      = app.Flag("frac", "true foreground fraction").Default("0.8").Float64()
	outlierMean   = app.Flag("outlier-mean", "true outlier mean").Default("0.0").Float64()
	outlierVar    = app.Flag("outlier-var", "true outlier variance").Default("1.0").Float64()
	sigma         = app.Flag("sigma", "per-point noise scale").Default("0.2").Float64()
	xmin          = app.Flag("xmin", "lower bound of x draws").Default("-2.0").Float64()
	xmax          = app.Flag("xmax", "upper bound of x draws").Default("2.0").Float64()
	dataSeed      = app.Flag("data-seed", "random seed of the synthetic dataset").Default("12").Int64()

	// prior bounds
	slopeBounds     = app.Flag("slope-bounds", "slope bounds (min:max)").Default("-5:5").String()
	interceptBounds = app.Flag("intercept-bounds", "intercept bounds (min:max)").Default("-5:5").String()
	meanBounds      = app.Flag("mean-bounds", "outlier mean bounds (min:max)").Default("-5:5").String()
	lnvBounds       = app.Flag("lnv-bounds", "log outlier variance bounds (min:max)").Default("-10:10").String()

	// sampler parameters
	method = app.Flag("method", "sampler to use "+
		"(ensemble: affine-invariant stretch-move ensemble, "+
		"mh: Metropolis-Hastings, "+
		"amh: adaptive Metropolis-Hastings"+
		")").Default("ensemble").Enum("ensemble", "mh", "amh")
	walkers      = app.Flag("walkers", "number of ensemble walkers").Default("32").Int()
	burnin       = app.Flag("burnin", "number of discarded burn-in iterations").Default("500").Int()
	iterations   = app.Flag("iter", "number of production iterations").Default("2000").Int()
	reportPeriod = app.Flag("report", "report every N iterations").Default("100").Int()
	accept       = app.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()
	randomize    = app.Flag("randomize", "use uniformly distributed random starting point; "+
		"by default the starting point comes from a least-squares fit").Bool()

	// technical
	seed = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	outF     = app.Flag("out", "write sampling trajectory to a file").String()
	jsonF    = app.Flag("json", "write json output to a file").String()
	ckpF     = app.Flag("checkpoint", "checkpoint database file").String()
	ckpSec   = app.Flag("cseconds", "checkpoint save interval, seconds").Default("30").Float64()
	fitPlotF = app.Flag("fit-plot", "write the fit plot to a file (png)").String()
	postPref = app.Flag("posterior-plots", "write marginal posterior histograms with this prefix").String()
	memPlotF = app.Flag("membership-plot", "write the membership bar chart to a file (png)").String()
	ciLevel  = app.Flag("level", "credible interval level").Default("0.68").Float64()
	gaussB   = app.Flag("gaussian-band", "use a normal-approximation band instead of empirical quantiles").Bool()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
)

// RunSummary stores the run summary for JSON output.
type RunSummary struct {
	// Version stores mixfit version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the sampler random seed.
	Seed int64 `json:"seed"`
	// DataSeed is the synthetic dataset seed.
	DataSeed int64 `json:"dataSeed"`
	// NOutliers is the number of true outliers in the dataset.
	NOutliers int `json:"nOutliers"`
	// Sampler is the sampler run summary.
	Sampler *sample.Summary `json:"sampler"`
	// Parameters are the marginal posterior summaries.
	Parameters []posterior.ParameterSummary `json:"parameters"`
	// Membership are the per-point foreground membership probabilities.
	Membership []float64 `json:"membership"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}

// parseRange parses a "min:max" bounds string.
func parseRange(s string) (min, max float64, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("incorrect bounds specification: %s", s)
	}
	min, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, err
	}
	max, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, err
	}
	if max <= min {
		return 0, 0, fmt.Errorf("incorrect bounds specification: %s", s)
	}
	return min, max, nil
}

// getBounds creates mixture bounds from the command-line flags.
func getBounds() (*mixture.Bounds, error) {
	b := mixture.DefaultBounds()
	var err error
	if b.SlopeMin, b.SlopeMax, err = parseRange(*slopeBounds); err != nil {
		return nil, err
	}
	if b.InterceptMin, b.InterceptMax, err = parseRange(*interceptBounds); err != nil {
		return nil, err
	}
	if b.MeanMin, b.MeanMax, err = parseRange(*meanBounds); err != nil {
		return nil, err
	}
	if b.LnVMin, b.LnVMax, err = parseRange(*lnvBounds); err != nil {
		return nil, err
	}
	return b, nil
}

// getSampler returns a sampler from the command-line flags.
func getSampler() sample.Sampler {
	switch *method {
	case "ensemble":
		e := sample.NewEnsemble(*walkers)
		e.AccPeriod = *accept
		return e
	case "mh", "amh":
		chain := sample.NewMH()
		chain.AccPeriod = *accept
		return chain
	}
	log.Fatalf("Unknown sampling method: %s", *method)
	return nil
}

func run() (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{}

	cfg := &data.Config{
		N:               *npoints,
		Slope:           *trueSlope,
		Intercept:       *trueIntercept,
		Frac:            *trueFrac,
		OutlierMean:     *outlierMean,
		OutlierVariance: *outlierVar,
		Sigma:           *sigma,
		XMin:            *xmin,
		XMax:            *xmax,
		Seed:            *dataSeed,
	}
	d := data.Generate(cfg)
	log.Infof("Generated %d points, %d true outliers", len(d.Points), d.NOutliers())
	summary.NOutliers = d.NOutliers()

	bounds, err := getBounds()
	if err != nil {
		log.Fatal(err)
	}

	m := mixture.New(d, bounds)
	if *method == "amh" {
		as := sample.NewAdaptiveSettings()
		if *burnin > 0 {
			as.Skip = *burnin / 20
			as.MaxAdapt = *burnin
		}
		log.Infof("Setting adaptive parameters, skip=%v, maxAdapt=%v", as.Skip, as.MaxAdapt)
		m.SetAdaptive(as)
	}
	if *randomize {
		log.Info("Using uniform (in the boundaries) random starting point")
		par := m.GetFloatParameters()
		par.Randomize()
	}

	f := os.Stdout
	if *outF != "" {
		f, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer f.Close()
	}

	smpl := getSampler()
	log.Infof("Using %s sampling.", *method)
	smpl.SetTrajectoryOutput(f)
	smpl.SetModel(m)
	smpl.SetReportPeriod(*reportPeriod)

	if *ckpF != "" {
		db, err := bolt.Open(*ckpF, 0600, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint file:", err)
		}
		defer db.Close()
		smpl.SetCheckpointIO(checkpoint.NewCheckpointIO(db, []byte("mixfit"), *ckpSec))
	}

	smpl.WatchSignals(os.Interrupt, syscall.SIGUSR2)
	smpl.Run(*burnin, *iterations)
	summary.Sampler = smpl.Summary()

	chain := smpl.Chain()
	if chain.Len() == 0 {
		log.Fatal("No samples retained")
	}
	log.Infof("Retained %d samples", chain.Len())

	probs := posterior.Membership(chain)
	summary.Membership = probs
	for i, p := range probs {
		mark := ""
		if d.Outlier[i] {
			mark = " (true outlier)"
		}
		log.Noticef("point %d: p(foreground)=%.3f%s", i, p, mark)
	}

	pars := posterior.Summarize(chain, *ciLevel)
	summary.Parameters = pars
	for _, p := range pars {
		log.Noticef("%s: mean=%.4f median=%.4f %.0f%% CI=[%.4f, %.4f]",
			p.Name, p.Mean, p.Median, *ciLevel*100, p.Lower, p.Upper)
	}

	cov := posterior.Covariance(chain)
	log.Infof("Posterior covariance:\n%v",
		mat64.Formatted(cov, mat64.Prefix(""), mat64.Squeeze()))

	if *fitPlotF != "" {
		if err := report.FitPlot(d, chain, *ciLevel, *gaussB, *fitPlotF); err != nil {
			log.Error("Error writing fit plot:", err)
		}
	}
	if *postPref != "" {
		if err := report.PosteriorPlots(chain, *postPref); err != nil {
			log.Error("Error writing posterior plots:", err)
		}
	}
	if *memPlotF != "" {
		if err := report.MembershipPlot(probs, d, *memPlotF); err != nil {
			log.Error("Error writing membership plot:", err)
		}
	}

	endTime := time.Now()
	deltaT := endTime.Sub(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "mixfit")
	logging.SetLevel(level, "sample")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)
	rand.Seed(*seed)

	summary := run()
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed
	summary.DataSeed = *dataSeed

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
