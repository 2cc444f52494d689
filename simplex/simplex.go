// SPDX-License-Identifier: MIT

package simplex

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/schedule"
)

// Operation tags for error wrapping.
const (
	opNew     = "simplex.New"
	opFit     = "simplex.Fit"
	opApprox  = "simplex.LatentApprox"
	opRestore = "simplex.Restore"
)

// Parameter keys written into explain.State.
const (
	paramKeep     = "n_keep"
	paramEpochs   = "n_epoch"
	paramRate     = "learning_rate"
	paramMomentum = "momentum"
	paramRegInit  = "reg_init"
	paramRegFinal = "reg_final"
	paramSeed     = "seed"
	metaPenalty   = "penalty"
	metaInit      = "init"
)

// Explainer fits SimplEx weights for a batch of test latents against a fixed corpus.
// It is not safe for concurrent Fit calls; queries after Fit are read-only.
type Explainer struct {
	corpus   *matrix.Dense // C×D, owned copy
	test     *matrix.Dense // T×D, owned copy, nil before Fit
	weights  *matrix.Dense // T×C, nil before Fit
	loss     []float64     // objective per epoch
	opts     options
	fitted   bool
	restored bool
}

var (
	_ explain.LatentApproximator = (*Explainer)(nil)
	_ explain.Decomposer         = (*Explainer)(nil)
)

// New builds an unfitted explainer over corpusLatents (C×D, copied).
//
// Errors:
//   - explain.ErrEmptyCorpus if corpusLatents is nil.
//   - explain.ErrDimensionMismatch if WithCorpusExamples has a different row count.
func New(corpusLatents *matrix.Dense, opts ...Option) (*Explainer, error) {
	if err := matrix.ValidateNotNil(corpusLatents); err != nil {
		return nil, fmt.Errorf("%s: %w", opNew, explain.ErrEmptyCorpus)
	}
	o := gatherOptions(opts)
	if o.examples != nil && o.examples.Rows() != corpusLatents.Rows() {
		return nil, fmt.Errorf("%s: %d corpus examples for %d latents: %w",
			opNew, o.examples.Rows(), corpusLatents.Rows(), explain.ErrDimensionMismatch)
	}

	return &Explainer{corpus: corpusLatents.Copy(), opts: o}, nil
}

// Kind implements explain.Explainer.
func (e *Explainer) Kind() explain.Kind { return explain.KindSimplex }

// Fit is FitContext with a background context.
func (e *Explainer) Fit(testLatents *matrix.Dense) error {
	return e.FitContext(context.Background(), testLatents)
}

// FitContext trains the weights for testLatents (T×D, copied).
// The context is checked once per epoch.
//
// Implementation:
//   - Stage 1: validate shapes and n_keep ∈ [1, C]; build the schedule.
//   - Stage 2: W ← uniform (or seeded random) rows; V ← 0.
//   - Stage 3: for e = 1..n_epoch:
//     r = schedule.ValueAt(e); R = W·C − X; G = (2/(T·D))·R·Cᵀ;
//     per row: G_t += (r/T)·∇P(w_t); v_t ← μ·v_t − η·G_t; w_t ← Project(w_t + v_t).
//   - Stage 4: keep the n_keep largest entries per row, renormalise, validate.
//
// Errors:
//   - explain.ErrAlreadyFitted, explain.ErrDimensionMismatch,
//     explain.ErrInvalidSparsity, explain.ErrNumericalInstability,
//     ctx.Err() on cancellation.
func (e *Explainer) FitContext(ctx context.Context, testLatents *matrix.Dense) error {
	if e.fitted {
		return fmt.Errorf("%s: %w", opFit, explain.ErrAlreadyFitted)
	}
	if err := explain.CheckLatents(e.corpus, testLatents); err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}
	nC := e.corpus.Rows()
	if err := explain.CheckKeep(e.opts.nKeep, nC); err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}
	sched, err := e.schedule()
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	x := testLatents.Copy()
	nT, nD := x.Rows(), x.Cols()
	w, err := e.initialWeights(nT, nC)
	if err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}
	vel, _ := matrix.NewDense(nT, nC)
	scratch, _ := matrix.NewDense(nT, nC)
	penGrad, _ := matrix.NewDense(nT, nC)

	var (
		mseScale = 2 / float64(nT*nD)
		rows     = make([]float64, nT) // per-row penalty values
		loss     = make([]float64, 0, e.opts.epochs)
		pen      = e.opts.penalty
		nKeep    = e.opts.nKeep
		rate     = e.opts.rate
		mu       = e.opts.momentum
	)
	for epoch := 1; epoch <= e.opts.epochs; epoch++ {
		if err = ctx.Err(); err != nil {
			return fmt.Errorf("%s: epoch %d: %w", opFit, epoch, err)
		}
		r := sched.ValueAt(epoch)

		recon, err := matrix.Mul(w, e.corpus)
		if err != nil {
			return fmt.Errorf("%s: %w", opFit, err)
		}
		resid, err := matrix.Sub(recon, x)
		if err != nil {
			return fmt.Errorf("%s: %w", opFit, err)
		}
		grad, err := matrix.MulTransB(resid, e.corpus)
		if err != nil {
			return fmt.Errorf("%s: %w", opFit, err)
		}
		penScale := r / float64(nT)

		err = matrix.ParallelRows(nT, e.opts.workers, func(t int) error {
			wt, vt, gt, pt := w.RowView(t), vel.RowView(t), grad.RowView(t), penGrad.RowView(t)
			rows[t] = pen.Value(wt, nKeep)
			pen.Grad(wt, nKeep, pt)
			for j := range wt {
				g := mseScale*gt[j] + penScale*pt[j]
				vt[j] = mu*vt[j] - rate*g
				wt[j] += vt[j]
			}
			projectInPlace(wt, scratch.RowView(t))

			return checkRow(wt, t)
		})
		if err != nil {
			return fmt.Errorf("%s: epoch %d: %w", opFit, epoch, err)
		}

		loss = append(loss, objective(resid, rows, r))
	}

	for t := 0; t < nT; t++ {
		keepTop(w.RowView(t), nKeep)
	}
	if err = explain.ValidateWeights(w, explain.DefaultSimplexTolerance); err != nil {
		return fmt.Errorf("%s: %w", opFit, err)
	}

	e.test, e.weights, e.loss, e.fitted = x, w, loss, true

	return nil
}

func (e *Explainer) schedule() (schedule.Schedule, error) {
	if e.opts.sched != nil {
		return e.opts.sched, nil
	}

	return schedule.NewExponential(e.opts.regInit, e.opts.regFinal, e.opts.epochs)
}

func (e *Explainer) initialWeights(nT, nC int) (*matrix.Dense, error) {
	w, err := matrix.NewDense(nT, nC)
	if err != nil {
		return nil, err
	}
	if e.opts.init == InitRandom {
		for t := 0; t < nT; t++ {
			exponentialRow(e.opts.seed, t, w.RowView(t))
		}
		// Normalised exponential variates are Dirichlet(1,...,1) rows.
		w, _, err = matrix.NormalizeRowsL1(w)

		return w, err
	}
	u := 1 / float64(nC)
	for t := 0; t < nT; t++ {
		row := w.RowView(t)
		for j := range row {
			row[j] = u
		}
	}

	return w, nil
}

// checkRow reports NaN, negative entries or a sum away from one after projection.
func checkRow(w []float64, t int) error {
	var s float64
	for j, v := range w {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("row %d col %d value %g: %w", t, j, v, explain.ErrNumericalInstability)
		}
		s += v
	}
	if math.Abs(s-1) > explain.DefaultSimplexTolerance {
		return fmt.Errorf("row %d sums to %g: %w", t, s, explain.ErrNumericalInstability)
	}

	return nil
}

// objective evaluates mean((W·C−X)²) + r·mean_t P(w_t) from the residual
// and the per-row penalty values of the same iterate.
func objective(resid *matrix.Dense, penalties []float64, r float64) float64 {
	var sq, p float64
	nT, nD := resid.Shape()
	for t := 0; t < nT; t++ {
		for _, v := range resid.RowView(t) {
			sq += v * v
		}
		p += penalties[t]
	}

	return sq/float64(nT*nD) + r*p/float64(nT)
}

// LatentApprox returns W·C (T×D).
// Errors: explain.ErrNotFitted.
func (e *Explainer) LatentApprox() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("%s: %w", opApprox, explain.ErrNotFitted)
	}
	out, err := matrix.Mul(e.weights, e.corpus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opApprox, err)
	}

	return out, nil
}

// Weights returns a copy of the fitted T×C weight matrix.
func (e *Explainer) Weights() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("simplex.Weights: %w", explain.ErrNotFitted)
	}

	return e.weights.Copy(), nil
}

// TestLatents returns a copy of the latents passed to Fit.
func (e *Explainer) TestLatents() (*matrix.Dense, error) {
	if !e.fitted {
		return nil, fmt.Errorf("simplex.TestLatents: %w", explain.ErrNotFitted)
	}

	return e.test.Copy(), nil
}

// CorpusLatents returns a copy of the corpus latents.
func (e *Explainer) CorpusLatents() *matrix.Dense { return e.corpus.Copy() }

// CorpusExamples returns a copy of the raw corpus inputs, or nil if none were attached.
func (e *Explainer) CorpusExamples() *matrix.Dense {
	if e.opts.examples == nil {
		return nil
	}

	return e.opts.examples.Copy()
}

// Loss returns the objective value recorded at every epoch (empty for a
// restored explainer).
func (e *Explainer) Loss() []float64 {
	out := make([]float64, len(e.loss))
	copy(out, e.loss)

	return out
}

// Keep returns the sparsity target n_keep.
func (e *Explainer) Keep() int { return e.opts.nKeep }

// Decompose returns the corpus contributions to test example t, largest first.
// Errors: explain.ErrNotFitted, explain.ErrOutOfRange.
func (e *Explainer) Decompose(t int) ([]explain.Contribution, error) {
	if !e.fitted {
		return nil, fmt.Errorf("simplex.Decompose: %w", explain.ErrNotFitted)
	}

	return explain.Decompose(e.weights, t)
}

// State exports the fitted explainer.
// Errors: explain.ErrNotFitted.
func (e *Explainer) State() (explain.State, error) {
	if !e.fitted {
		return explain.State{}, fmt.Errorf("simplex.State: %w", explain.ErrNotFitted)
	}

	return explain.State{
		Kind:          explain.KindSimplex,
		Weights:       e.weights.Copy(),
		CorpusLatents: e.corpus.Copy(),
		TestLatents:   e.test.Copy(),
		Examples:      e.CorpusExamples(),
		Params: map[string]float64{
			paramKeep:     float64(e.opts.nKeep),
			paramEpochs:   float64(e.opts.epochs),
			paramRate:     e.opts.rate,
			paramMomentum: e.opts.momentum,
			paramRegInit:  e.opts.regInit,
			paramRegFinal: e.opts.regFinal,
			paramSeed:     float64(e.opts.seed),
		},
		Meta: map[string]string{
			metaPenalty: e.opts.penalty.Name(),
			metaInit:    e.opts.init.String(),
		},
	}, nil
}

// Restore rebuilds a query-only explainer from a State produced by State.
// Fit on the result returns explain.ErrAlreadyFitted.
//
// Errors: explain.ErrKindMismatch, plus any State.Validate error.
func Restore(s explain.State) (*Explainer, error) {
	if s.Kind != explain.KindSimplex {
		return nil, fmt.Errorf("%s: got %q: %w", opRestore, s.Kind, explain.ErrKindMismatch)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", opRestore, err)
	}

	o := defaultOptions()
	if v, ok := s.Params[paramKeep]; ok {
		o.nKeep = int(v)
	}
	if v, ok := s.Params[paramEpochs]; ok {
		o.epochs = int(v)
	}
	if v, ok := s.Params[paramRate]; ok {
		o.rate = v
	}
	if v, ok := s.Params[paramMomentum]; ok {
		o.momentum = v
	}
	if v, ok := s.Params[paramRegInit]; ok {
		o.regInit = v
	}
	if v, ok := s.Params[paramRegFinal]; ok {
		o.regFinal = v
	}
	if v, ok := s.Params[paramSeed]; ok {
		o.seed = int64(v)
	}
	if p, ok := PenaltyByName(s.Meta[metaPenalty]); ok {
		o.penalty = p
	}
	if s.Meta[metaInit] == InitRandom.String() {
		o.init = InitRandom
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
