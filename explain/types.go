// SPDX-License-Identifier: MIT

package explain

import (
	"fmt"

	"github.com/katalvlaran/corpex/matrix"
)

// Kind names an explainer family. The string form is stable: it is part of
// persistence keys ("<kind>_cv<cv>_n<keep>").
type Kind string

const (
	KindSimplex     Kind = "simplex"
	KindNNUniform   Kind = "nn_uniform"
	KindNNDistance  Kind = "nn_dist"
	KindRepresenter Kind = "representer"
)

// Kinds lists every known Kind in reporting order.
func Kinds() []Kind {
	return []Kind{KindSimplex, KindNNUniform, KindNNDistance, KindRepresenter}
}

// ParseKind validates s against the known kinds.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("explain: unknown kind %q", s)
}

// Explainer is the surface shared by all explainers.
type Explainer interface {
	// Kind identifies the explainer family.
	Kind() Kind

	// Fit trains the explainer on the test latents. It may be called once.
	Fit(testLatents *matrix.Dense) error

	// State exports everything needed to restore the explainer for querying.
	State() (State, error)
}

// LatentApproximator is implemented by explainers that reconstruct test
// latents from corpus latents (the weight-based kinds).
type LatentApproximator interface {
	Explainer

	// LatentApprox returns the T×D reconstruction of the test latents.
	LatentApprox() (*matrix.Dense, error)
}

// Decomposer is implemented by explainers with per-test weight rows.
type Decomposer interface {
	// Decompose returns the corpus contributions for test example t,
	// sorted by decreasing weight, zero weights omitted.
	Decompose(t int) ([]Contribution, error)
}

// Contribution is one corpus example's share in a test decomposition.
type Contribution struct {
	Index  int     // corpus row
	Weight float64 // convex weight in (0, 1]
}

// State is the serializable snapshot of a fitted explainer.
//
// Weight-based kinds fill Weights (T×C); the representer fills Coefficients
// (C×K) and leaves Weights nil. CorpusLatents and TestLatents are the
// matrices the explainer was fitted against; Examples optionally holds the
// raw corpus inputs. Params and Meta carry scalar and named settings
// (n_keep, regularization, penalty, ...) for bookkeeping; they never affect
// queries.
type State struct {
	Kind          Kind
	Weights       *matrix.Dense
	Coefficients  *matrix.Dense
	CorpusLatents *matrix.Dense
	TestLatents   *matrix.Dense
	Examples      *matrix.Dense
	Params        map[string]float64
	Meta          map[string]string
}

// Validate checks the internal shape consistency of s.
func (s State) Validate() error {
	if s.CorpusLatents == nil {
		return fmt.Errorf("State(%s): corpus: %w", s.Kind, ErrEmptyCorpus)
	}
	if s.TestLatents != nil && s.TestLatents.Cols() != s.CorpusLatents.Cols() {
		return fmt.Errorf("State(%s): latent width: %w", s.Kind, ErrDimensionMismatch)
	}
	if s.Examples != nil && s.Examples.Rows() != s.CorpusLatents.Rows() {
		return fmt.Errorf("State(%s): corpus examples: %w", s.Kind, ErrDimensionMismatch)
	}
	switch s.Kind {
	case KindRepresenter:
		if s.Coefficients == nil || s.Coefficients.Rows() != s.CorpusLatents.Rows() {
			return fmt.Errorf("State(%s): coefficients: %w", s.Kind, ErrDimensionMismatch)
		}
	case KindSimplex, KindNNUniform, KindNNDistance:
		if s.Weights == nil || s.TestLatents == nil {
			return fmt.Errorf("State(%s): weights: %w", s.Kind, ErrNotFitted)
		}
		if s.Weights.Rows() != s.TestLatents.Rows() || s.Weights.Cols() != s.CorpusLatents.Rows() {
			return fmt.Errorf("State(%s): weights shape: %w", s.Kind, ErrDimensionMismatch)
		}
	default:
		return fmt.Errorf("State: %w: %q", ErrKindMismatch, s.Kind)
	}

	return nil
}
