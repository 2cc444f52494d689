// SPDX-License-Identifier: MIT

package simplex

import (
	"math"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/schedule"
)

// Defaults. These constants MUST match defaultOptions.
const (
	// DefaultEpochs is the number of projected gradient steps.
	DefaultEpochs = 10000

	// DefaultLearningRate is the gradient step size η.
	DefaultLearningRate = 0.1

	// DefaultMomentum is the heavy-ball coefficient μ.
	DefaultMomentum = 0.5

	// DefaultRegInit and DefaultRegFinal are the endpoints of the exponential
	// regularization schedule.
	DefaultRegInit  = 0.1
	DefaultRegFinal = 1000.0

	// DefaultKeep is the sparsity target n_keep.
	DefaultKeep = 5

	// DefaultSeed feeds InitRandom; zero maps to a fixed non-zero seed.
	DefaultSeed int64 = 0
)

// Init selects the starting point of the weight rows.
type Init int

const (
	// InitUniform starts every row at 1/C.
	InitUniform Init = iota
	// InitRandom starts every row at a seeded uniform draw from the simplex.
	InitRandom
)

// String returns the persisted name of the init mode.
func (i Init) String() string {
	if i == InitRandom {
		return "random"
	}

	return "uniform"
}

const (
	panicEpochs   = "simplex: WithEpochs: epochs must be >= 1"
	panicRate     = "simplex: WithLearningRate: rate must be finite and > 0"
	panicMomentum = "simplex: WithMomentum: momentum must be in [0, 1)"
	panicReg      = "simplex: WithRegularization: values must be finite and > 0"
	panicKeep     = "simplex: WithKeep: n_keep must be >= 1"
	panicPenalty  = "simplex: WithPenalty: nil penalty"
	panicInit     = "simplex: WithInit: unknown init mode"
	panicSchedule = "simplex: WithSchedule: nil schedule"
	panicExamples = "simplex: WithCorpusExamples: nil matrix"
)

// Option configures an Explainer. Constructors panic only on nonsensical
// values (programmer error); data-dependent checks happen in Fit.
type Option func(*options)

type options struct {
	epochs   int
	rate     float64
	momentum float64
	regInit  float64
	regFinal float64
	nKeep    int
	penalty  Penalty
	seed     int64
	init     Init
	workers  int
	examples *matrix.Dense
	sched    schedule.Schedule // overrides regInit/regFinal when non-nil
}

func defaultOptions() options {
	return options{
		epochs:   DefaultEpochs,
		rate:     DefaultLearningRate,
		momentum: DefaultMomentum,
		regInit:  DefaultRegInit,
		regFinal: DefaultRegFinal,
		nKeep:    DefaultKeep,
		penalty:  TailMass{},
		seed:     DefaultSeed,
		init:     InitUniform,
		workers:  matrix.DefaultWorkers,
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

func finitePositive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// WithEpochs sets the number of training epochs.
func WithEpochs(n int) Option {
	if n < 1 {
		panic(panicEpochs)
	}

	return func(o *options) { o.epochs = n }
}

// WithLearningRate sets the step size η.
func WithLearningRate(rate float64) Option {
	if !finitePositive(rate) {
		panic(panicRate)
	}

	return func(o *options) { o.rate = rate }
}

// WithMomentum sets the heavy-ball coefficient μ ∈ [0,1).
func WithMomentum(mu float64) Option {
	if !(mu >= 0 && mu < 1) {
		panic(panicMomentum)
	}

	return func(o *options) { o.momentum = mu }
}

// WithRegularization sets the exponential schedule endpoints.
func WithRegularization(initial, final float64) Option {
	if !finitePositive(initial) || !finitePositive(final) {
		panic(panicReg)
	}

	return func(o *options) { o.regInit, o.regFinal = initial, final }
}

// WithSchedule replaces the exponential schedule. Steps beyond the schedule's
// range are clamped by the schedule itself.
func WithSchedule(s schedule.Schedule) Option {
	if s == nil {
		panic(panicSchedule)
	}

	return func(o *options) { o.sched = s }
}

// WithKeep sets the sparsity target n_keep. The upper bound (corpus size)
// is checked in Fit.
func WithKeep(n int) Option {
	if n < 1 {
		panic(panicKeep)
	}

	return func(o *options) { o.nKeep = n }
}

// WithPenalty selects the sparsity penalty.
func WithPenalty(p Penalty) Option {
	if p == nil {
		panic(panicPenalty)
	}

	return func(o *options) { o.penalty = p }
}

// WithSeed sets the seed used by InitRandom.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithInit selects the starting point.
func WithInit(i Init) Option {
	if i != InitUniform && i != InitRandom {
		panic(panicInit)
	}

	return func(o *options) { o.init = i }
}

// WithWorkers sets the number of goroutines used per epoch. Values < 1 fall
// back to matrix.DefaultWorkers.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithCorpusExamples attaches the raw corpus inputs (one row per corpus
// example) so decompositions can be shown next to the original data.
func WithCorpusExamples(x *matrix.Dense) Option {
	if x == nil {
		panic(panicExamples)
	}

	return func(o *options) { o.examples = x.Copy() }
}
