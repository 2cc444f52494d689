// SPDX-License-Identifier: MIT

package nearest

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

const (
	opNew     = "nearest.New"
	opFit     = "nearest.Fit"
	opRestore = "nearest.Restore"
	paramKeep = "n_keep"
)

// Explainer is the k-nearest-neighbor baseline.
type Explainer struct {
	corpus   *matrix.Dense
	test     *matrix.Dense
	weights  *matrix.Dense
	opts     options
	fitted   bool
	restored bool
}

var (
	_ explain.LatentApproximator = (*Explainer)(nil)
	_ explain.Decomposer         = (*Explainer)(nil)
)

// New builds an unfitted explainer over corpusLatents (copied).
// Errors: explain.ErrEmptyCorpus, explain.ErrDimensionMismatch (examples rows).
func New(corpusLatents *matrix.Dense, opts ...Option) (*Explainer, error) {
	if err := matrix.ValidateNotNil(corpusLatents); err != nil {
		return nil, fmt.Errorf("%s: %w", opNew, explain.ErrEmptyCorpus)
	}
	o := gatherOptions(opts)
	if o.examples != nil && o.examples.Rows() != corpusLatents.Rows() {
		return nil, fmt.Errorf("%s: corpus examples: %w", opNew, explain.ErrDimensionMismatch)
	}

	return &Explainer{corpus: corpusLatents.Copy(), opts: o}, nil
}

// Kind reports nn_uniform or nn_dist depending on the weighting.
func (e *Explainer) Kind() explain.Kind { return e.opts.weighting.Kind() }

// Fit selects the k nearest corpus rows for every test row.
//
// Implementation:
//   - Stage 1: validate widths and k ∈ [1, C].
//   - Stage 2: squared distances T×C (exact zeros for identical rows).
//   - Stage 3: per row, stable argsort ascending, keep the first k,
//     weight them per Weighting.
//
// Errors: explain.ErrAlreadyFitted, explain.ErrDimensionMismatch, explain.ErrInvalidSparsity.
// Complexity: O(T·C·D + T·C log C).
func (e *Explainer) Fit(testLatents *matrix.Dense) error {
	if e.fitted {
		return fmt.Errorf("%s: %w", opFit, explain.ErrAlreadyFitted)
	}
	if err := explain.CheckLatents(e.corpus, testLatents); err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}
	if err := explain.CheckKeep(e.opts.k, e.corpus.Rows()); err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	x := testLatents.Copy()
	dist, err := matrix.SquaredDistances(x, e.corpus)
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}
	w, err := matrix.NewDense(x.Rows(), e.corpus.Rows())
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	err = matrix.ParallelRows(x.Rows(), e.opts.workers, func(t int) error {
		neighborWeights(dist.RowView(t), e.opts.k, e.opts.weighting, w.RowView(t))

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	e.test, e.weights, e.fitted = x, w, true

	return nil
}

// neighborWeights fills dst (zeroed) from one row of squared distances.
func neighborWeights(sq []float64, k int, mode Weighting, dst []float64) {
	idx := make([]int, len(sq))
	for j := range idx {
		idx[j] = j
	}
	sort.SliceStable(idx, func(a, b int) bool { return sq[idx[a]] < sq[idx[b]] })
	idx = idx[:k]

	if mode == Uniform {
		for _, j := range idx {
			dst[j] = 1 / float64(k)
		}

		return
	}

	// The first index is the closest; an exact match there wins outright.
	if sq[idx[0]] == 0 {
		dst[idx[0]] = 1

		return
	}
	for _, j := range idx {
		dst[j] = 1 / math.Sqrt(sq[j])
	}
	matrix.NormalizeL1(dst)
}

// LatentApprox returns W·C.
func (e *Explainer) LatentApprox() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("nearest.LatentApprox: %w", explain.ErrNotFitted)
	}
	out, err := matrix.Mul(e.weights, e.corpus)
	if err != nil {
		return nil, fmt.Errorf("nearest.LatentApprox: %w", err)
	}

	return out, nil
}

// Weights returns a copy of the T×C weight matrix.
func (e *Explainer) Weights() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("nearest.Weights: %w", explain.ErrNotFitted)
	}

	return e.weights.Copy(), nil
}

// Keep returns k.
func (e *Explainer) Keep() int { return e.opts.k }

// CorpusExamples returns a copy of the attached raw corpus inputs, or nil.
func (e *Explainer) CorpusExamples() *matrix.Dense {
	if e.opts.examples == nil {
		return nil
	}

	return e.opts.examples.Copy()
}

// Decompose returns the neighbors of test example t with their weights, largest first.
func (e *Explainer) Decompose(t int) ([]explain.Contribution, error) {
	if !e.fitted {
		return nil, fmt.Errorf("nearest.Decompose: %w", explain.ErrNotFitted)
	}

	return explain.Decompose(e.weights, t)
}

// State exports the fitted explainer.
func (e *Explainer) State() (explain.State, error) {
	if !e.fitted {
		return explain.State{}, fmt.Errorf("nearest.State: %w", explain.ErrNotFitted)
	}

	return explain.State{
		Kind:          e.Kind(),
		Weights:       e.weights.Copy(),
		CorpusLatents: e.corpus.Copy(),
		TestLatents:   e.test.Copy(),
		Examples:      e.CorpusExamples(),
		Params:        map[string]float64{paramKeep: float64(e.opts.k)},
	}, nil
}

// Restore rebuilds a query-only explainer from an nn_uniform or nn_dist State.
func Restore(s explain.State) (*Explainer, error) {
	var mode Weighting
	switch s.Kind {
	case explain.KindNNUniform:
		mode = Uniform
	case explain.KindNNDistance:
		mode = Distance
	default:
		return nil, fmt.Errorf("%s: got %q: %w", opRestore, s.Kind, explain.ErrKindMismatch)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", opRestore, err)
	}
	o := options{k: DefaultKeep, weighting: mode, workers: matrix.DefaultWorkers}
	if v, ok := s.Params[paramKeep]; ok {
		o.k = int(v)
	}
	if s.Examples != nil {
		o.examples = s.Examples.Copy()
	}

	return &Explainer{
		corpus:   s.CorpusLatents.Copy(),
		test:     s.TestLatents.Copy(),
		weights:  s.Weights.Copy(),
		opts:     o,
		fitted:   true,
		restored: true,
	}, nil
}

// Restored reports whether the explainer was rebuilt from a State.
func (e *Explainer) Restored() bool { return e.restored }
