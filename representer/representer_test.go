// SPDX-License-Identifier: MIT

package representer_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/representer"
)

// corpusFixture returns C random latents (D wide) with random class
// probabilities and one-hot labels over K classes.
func corpusFixture(t testing.TB, seed int64, nC, nD, nK int) (latents, probas, labels *matrix.Dense) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var err error
	latents, err = matrix.NewDense(nC, nD)
	require.NoError(t, err)
	probas, err = matrix.NewDense(nC, nK)
	require.NoError(t, err)
	labels, err = matrix.NewDense(nC, nK)
	require.NoError(t, err)
	for i := 0; i < nC; i++ {
		for j, row := 0, latents.RowView(i); j < nD; j++ {
			row[j] = rng.NormFloat64()
		}
		var s float64
		p := probas.RowView(i)
		for k := range p {
			p[k] = rng.Float64() + 0.01
			s += p[k]
		}
		for k := range p {
			p[k] /= s
		}
		labels.RowView(i)[rng.Intn(nK)] = 1
	}

	return latents, probas, labels
}

func frobenius(m *matrix.Dense) float64 {
	var s float64
	for _, v := range m.RawData() {
		s += v * v
	}

	return math.Sqrt(s)
}

func TestKernelRidge_ReproducesCorpusResiduals(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 1, 6, 10, 3)
	ex, err := representer.New(latents, probas, labels, representer.WithRegularization(0))
	require.NoError(t, err)
	require.NoError(t, ex.Fit(latents))

	out, err := ex.OutputApprox()
	require.NoError(t, err)
	resid, err := matrix.Sub(labels, probas)
	require.NoError(t, err)
	assert.InDeltaSlice(t, resid.RawData(), out.RawData(), 1e-4, "got\n%v\nwant\n%v", out, resid)
}

func TestKernelRidge_ShrinksWithRegularization(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 2, 12, 4, 5)
	resid, err := matrix.Sub(labels, probas)
	require.NoError(t, err)

	prev := math.Inf(1)
	for _, reg := range []float64{0.01, 0.1, 1, 10} {
		ex, err := representer.New(latents, probas, labels, representer.WithRegularization(reg))
		require.NoError(t, err)
		require.NoError(t, ex.Fit(latents))
		out, err := ex.OutputApprox()
		require.NoError(t, err)

		n := frobenius(out)
		assert.LessOrEqual(t, n, frobenius(resid)+1e-9, "reg %g", reg)
		assert.Less(t, n, prev, "reg %g", reg)
		prev = n
	}
}

func TestRepresenter_ClosedForm(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 3, 4, 2, 2)
	ex, err := representer.New(latents, probas, labels,
		representer.WithMethod(representer.Representer),
		representer.WithRegularization(0.5))
	require.NoError(t, err)
	assert.Equal(t, 2.0, ex.EffectiveRidge())
	require.NoError(t, ex.Fit(latents))

	alpha, err := ex.Coefficients()
	require.NoError(t, err)
	resid, err := matrix.Sub(labels, probas)
	require.NoError(t, err)
	want, err := matrix.Scale(resid, 0.25)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.RawData(), alpha.RawData(), 1e-15)
}

func TestOutputApproxFor_MatchesStoredTestSet(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 4, 8, 3, 4)
	test, _, _ := corpusFixture(t, 5, 5, 3, 4)
	ex, err := representer.New(latents, probas, labels)
	require.NoError(t, err)
	require.NoError(t, ex.Fit(test))

	a, err := ex.OutputApprox()
	require.NoError(t, err)
	b, err := ex.OutputApproxFor(test)
	require.NoError(t, err)
	assert.True(t, matrix.Equal(a, b))
	r, c := a.Shape()
	assert.Equal(t, 5, r)
	assert.Equal(t, 4, c)
}

func TestRidgeFloor(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 6, 3, 2, 2)
	ex, err := representer.New(latents, probas, labels,
		representer.WithRegularization(0), representer.WithRidgeFloor(1e-3))
	require.NoError(t, err)
	assert.Equal(t, 1e-3, ex.EffectiveRidge())
	// Three points in two dimensions give a singular Gram matrix; the floor
	// keeps the solve well posed.
	require.NoError(t, ex.Fit(latents))
}

func TestDegenerateRegression(t *testing.T) {
	latents, err := matrix.NewFromRows([][]float64{{1e200, 0}, {1e200, 1e200}})
	require.NoError(t, err)
	probas, err := matrix.NewFromRows([][]float64{{0.5, 0.5}, {0.5, 0.5}})
	require.NoError(t, err)
	labels, err := matrix.NewFromRows([][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)

	ex, err := representer.New(latents, probas, labels)
	require.NoError(t, err)
	assert.ErrorIs(t, ex.Fit(latents), explain.ErrDegenerateRegression)
}

func TestErrors(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 7, 4, 3, 2)
	short, _, _ := corpusFixture(t, 8, 3, 3, 2)

	_, err := representer.New(short, probas, labels)
	assert.ErrorIs(t, err, explain.ErrDimensionMismatch)
	_, err = representer.New(latents, probas, nil)
	assert.ErrorIs(t, err, explain.ErrDimensionMismatch)
	_, err = representer.New(nil, probas, labels)
	assert.ErrorIs(t, err, explain.ErrEmptyCorpus)

	ex, err := representer.New(latents, probas, labels)
	require.NoError(t, err)
	_, err = ex.OutputApprox()
	assert.ErrorIs(t, err, explain.ErrNotFitted)

	wide, _, _ := corpusFixture(t, 9, 2, 5, 2)
	assert.ErrorIs(t, ex.Fit(wide), explain.ErrDimensionMismatch)

	require.NoError(t, ex.Fit(latents))
	assert.ErrorIs(t, ex.Fit(latents), explain.ErrAlreadyFitted)
	_, err = ex.OutputApproxFor(wide)
	assert.ErrorIs(t, err, explain.ErrDimensionMismatch)

	assert.Panics(t, func() { representer.WithRegularization(-1) })
	assert.Panics(t, func() { representer.WithRidgeFloor(0) })
}

func TestStateRestore(t *testing.T) {
	latents, probas, labels := corpusFixture(t, 10, 6, 3, 3)
	test, _, _ := corpusFixture(t, 11, 4, 3, 3)
	ex, err := representer.New(latents, probas, labels, representer.WithMethod(representer.Representer))
	require.NoError(t, err)
	require.NoError(t, ex.Fit(test))

	st, err := ex.State()
	require.NoError(t, err)
	assert.Nil(t, st.Weights)
	assert.Equal(t, "representer", st.Meta["method"])

	back, err := representer.Restore(st)
	require.NoError(t, err)
	want, err := ex.OutputApprox()
	require.NoError(t, err)
	got, err := back.OutputApprox()
	require.NoError(t, err)
	assert.True(t, matrix.Equal(want, got))
	assert.ErrorIs(t, back.Fit(test), explain.ErrAlreadyFitted)

	st.Kind = explain.KindSimplex
	_, err = representer.Restore(st)
	assert.ErrorIs(t, err, explain.ErrKindMismatch)
}
