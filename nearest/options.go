// SPDX-License-Identifier: MIT

package nearest

import (
	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

// Weighting selects how neighbor weights are derived from distances.
type Weighting int

const (
	// Uniform assigns 1/k to each of the k neighbors.
	Uniform Weighting = iota
	// Distance assigns weights proportional to inverse distance.
	Distance
)

// Kind maps the weighting to the explainer kind it produces.
func (w Weighting) Kind() explain.Kind {
	if w == Distance {
		return explain.KindNNDistance
	}

	return explain.KindNNUniform
}

// Defaults.
const (
	DefaultKeep      = 5
	DefaultWeighting = Uniform
)

const (
	panicKeep      = "nearest: WithKeep: k must be >= 1"
	panicWeighting = "nearest: WithWeighting: unknown weighting"
	panicExamples  = "nearest: WithCorpusExamples: nil matrix"
)

// Option configures an Explainer.
type Option func(*options)

type options struct {
	k         int
	weighting Weighting
	workers   int
	examples  *matrix.Dense
}

func gatherOptions(opts []Option) options {
	o := options{k: DefaultKeep, weighting: DefaultWeighting, workers: matrix.DefaultWorkers}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// WithKeep sets the neighbor count k. The upper bound (corpus size) is checked in Fit.
func WithKeep(k int) Option {
	if k < 1 {
		panic(panicKeep)
	}

	return func(o *options) { o.k = k }
}

// WithWeighting selects Uniform or Distance weights.
func WithWeighting(w Weighting) Option {
	if w != Uniform && w != Distance {
		panic(panicWeighting)
	}

	return func(o *options) { o.weighting = w }
}

// WithWorkers sets the number of goroutines used to search neighbors.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithCorpusExamples attaches the raw corpus inputs for display.
func WithCorpusExamples(x *matrix.Dense) Option {
	if x == nil {
		panic(panicExamples)
	}

	return func(o *options) { o.examples = x.Copy() }
}
