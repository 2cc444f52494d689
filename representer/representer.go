// SPDX-License-Identifier: MIT

package representer

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

const (
	opNew      = "representer.New"
	opFit      = "representer.Fit"
	opOutput   = "representer.OutputApprox"
	opRestore  = "representer.Restore"
	paramReg   = "reg"
	paramFloor = "ridge_floor"
	metaMethod = "method"
)

// Explainer approximates output logits through corpus coefficients.
type Explainer struct {
	corpus *matrix.Dense // C×D
	probas *matrix.Dense // C×K, nil after Restore
	labels *matrix.Dense // C×K, nil after Restore
	test   *matrix.Dense // T×D
	alpha  *matrix.Dense // C×K
	opts   options
	fitted bool
}

var _ explain.Explainer = (*Explainer)(nil)

// New validates and copies the corpus inputs.
//
// Errors:
//   - explain.ErrEmptyCorpus for a nil corpus.
//   - explain.ErrDimensionMismatch when row counts differ or probas and
//     labels have different shapes.
func New(corpusLatents, corpusProbas, corpusTrueClasses *matrix.Dense, opts ...Option) (*Explainer, error) {
	if err := matrix.ValidateNotNil(corpusLatents); err != nil {
		return nil, fmt.Errorf("%s: %w", opNew, explain.ErrEmptyCorpus)
	}
	if err := matrix.ValidateBinarySameShape(corpusProbas, corpusTrueClasses); err != nil {
		return nil, fmt.Errorf("%s: probas vs labels: %v: %w", opNew, err, explain.ErrDimensionMismatch)
	}
	if corpusProbas.Rows() != corpusLatents.Rows() {
		return nil, fmt.Errorf("%s: %d probability rows for %d latents: %w",
			opNew, corpusProbas.Rows(), corpusLatents.Rows(), explain.ErrDimensionMismatch)
	}

	return &Explainer{
		corpus: corpusLatents.Copy(),
		probas: corpusProbas.Copy(),
		labels: corpusTrueClasses.Copy(),
		opts:   gatherOptions(opts),
	}, nil
}

// Kind implements explain.Explainer.
func (e *Explainer) Kind() explain.Kind { return explain.KindRepresenter }

// EffectiveRidge returns λ' = max(λ·C, floor).
func (e *Explainer) EffectiveRidge() float64 {
	return math.Max(e.opts.reg*float64(e.corpus.Rows()), e.opts.floor)
}

// Fit computes the coefficients from the corpus and stores testLatents.
//
// Errors: explain.ErrAlreadyFitted, explain.ErrDimensionMismatch,
// explain.ErrDegenerateRegression (Gram system not factorisable even with
// the ridge floor).
func (e *Explainer) Fit(testLatents *matrix.Dense) error {
	if e.fitted {
		return fmt.Errorf("%s: %w", opFit, explain.ErrAlreadyFitted)
	}
	if err := explain.CheckLatents(e.corpus, testLatents); err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}
	resid, err := matrix.Sub(e.labels, e.probas)
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	ridge := e.EffectiveRidge()
	var alpha *matrix.Dense
	switch e.opts.method {
	case Representer:
		alpha, err = matrix.Scale(resid, 1/(2*ridge))
	default:
		alpha, err = e.solveKernelRidge(resid, ridge)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	e.test, e.alpha, e.fitted = testLatents.Copy(), alpha, true

	return nil
}

func (e *Explainer) solveKernelRidge(resid *matrix.Dense, ridge float64) (*matrix.Dense, error) {
	gram, err := matrix.MulTransB(e.corpus, e.corpus)
	if err != nil {
		return nil, err
	}
	alpha, err := matrix.SolveSPD(gram, ridge, resid)
	if errors.Is(err, matrix.ErrNotPositiveDefinite) {
		return nil, fmt.Errorf("ridge %g: %v: %w", ridge, err, explain.ErrDegenerateRegression)
	}
	if err != nil {
		return nil, err
	}
	if err = matrix.ValidateFinite(alpha); err != nil {
		return nil, fmt.Errorf("%v: %w", err, explain.ErrDegenerateRegression)
	}

	return alpha, nil
}

// OutputApprox returns (X·Cᵀ)·α (T×K) for the latents passed to Fit.
func (e *Explainer) OutputApprox() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("%s: %w", opOutput, explain.ErrNotFitted)
	}

	return e.OutputApproxFor(e.test)
}

// OutputApproxFor returns (H·Cᵀ)·α for arbitrary latents H (N×D).
// Errors: explain.ErrNotFitted, explain.ErrDimensionMismatch.
func (e *Explainer) OutputApproxFor(latents *matrix.Dense) (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("%s: %w", opOutput, explain.ErrNotFitted)
	}
	if err := explain.CheckLatents(e.corpus, latents); err != nil {
		return nil, fmt.Errorf("%s: %w", opOutput, err)
	}
	kernel, err := matrix.MulTransB(latents, e.corpus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opOutput, err)
	}
	out, err := matrix.Mul(kernel, e.alpha)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opOutput, err)
	}

	return out, nil
}

// Coefficients returns a copy of α (C×K).
func (e *Explainer) Coefficients() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("representer.Coefficients: %w", explain.ErrNotFitted)
	}

	return e.alpha.Copy(), nil
}

// TestLatents returns a copy of the latents passed to Fit.
func (e *Explainer) TestLatents() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("representer.TestLatents: %w", explain.ErrNotFitted)
	}

	return e.test.Copy(), nil
}

// State exports the fitted coefficients.
func (e *Explainer) State() (explain.State, error) {
	if !e.fitted {
		return explain.State{}, fmt.Errorf("representer.State: %w", explain.ErrNotFitted)
	}

	return explain.State{
		Kind:          explain.KindRepresenter,
		Coefficients:  e.alpha.Copy(),
		CorpusLatents: e.corpus.Copy(),
		TestLatents:   e.test.Copy(),
		Params:        map[string]float64{paramReg: e.opts.reg, paramFloor: e.opts.floor},
		Meta:          map[string]string{metaMethod: e.opts.method.String()},
	}, nil
}

// Restore rebuilds a query-only representer. The corpus probabilities and
// labels are not part of the State, so Fit on the result is rejected.
func Restore(s explain.State) (*Explainer, error) {
	if s.Kind != explain.KindRepresenter {
		return nil, fmt.Errorf("%s: got %q: %w", opRestore, s.Kind, explain.ErrKindMismatch)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", opRestore, err)
	}
	if s.TestLatents == nil {
		return nil, fmt.Errorf("%s: test latents: %w", opRestore, explain.ErrNotFitted)
	}
	o := gatherOptions(nil)
	if v, ok := s.Params[paramReg]; ok {
		o.reg = v
	}
	if v, ok := s.Params[paramFloor]; ok {
		o.floor = v
	}
	if s.Meta[metaMethod] == Representer.String() {
		o.method = Representer
	}

	return &Explainer{
		corpus: s.CorpusLatents.Copy(),
		test:   s.TestLatents.Copy(),
		alpha:  s.Coefficients.Copy(),
		opts:   o,
		fitted: true,
	}, nil
}
