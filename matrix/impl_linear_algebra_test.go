// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSub(t *testing.T) {
	t.Parallel()

	a := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	b := NewFilledDense(t, 2, 2, []float64{4, 3, 2, 1})

	diff, err := matrix.Sub(a, b)
	require.NoError(t, err)
	require.Equal(t, []float64{-3, -1, 1, 3}, diff.RawData())

	slow, err := matrix.Sub(a, hide{b})
	require.NoError(t, err)
	require.True(t, matrix.Equal(diff, slow))

	_, err = matrix.Sub(a, MustDense(t, 3, 2))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.Sub(nil, b)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}

func TestMul_FastPathMatchesFallback(t *testing.T) {
	t.Parallel()

	a := RandFilledDense(t, 5, 4, 1)
	b := RandFilledDense(t, 4, 3, 2)

	fast, err := matrix.Mul(a, b)
	require.NoError(t, err)
	slow, err := matrix.Mul(hide{a}, hide{b})
	require.NoError(t, err)

	CompareClose(t, fast, slow, 1e-12)

	_, err = matrix.Mul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestMul_ConvexCombination reconstructs a latent vector from corpus rows.
func TestMul_ConvexCombination(t *testing.T) {
	t.Parallel()

	corpus := NewFilledDense(t, 4, 2, []float64{0, 0, 1, 0, 0, 1, 1, 1})
	w := NewFilledDense(t, 1, 4, []float64{0.25, 0.25, 0.25, 0.25})

	approx, err := matrix.Mul(w, corpus)
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 0.5}, approx.RawData())
}

func TestMulTransB(t *testing.T) {
	t.Parallel()

	a := RandFilledDense(t, 3, 4, 3)
	b := RandFilledDense(t, 5, 4, 4)

	got, err := matrix.MulTransB(a, b)
	require.NoError(t, err)

	var prod mat.Dense
	prod.Mul(matrix.ToGonum(a), matrix.ToGonum(b).T())
	want, err := matrix.FromGonum(&prod)
	require.NoError(t, err)

	CompareClose(t, got, want, 1e-12)

	_, err = matrix.MulTransB(a, MustDense(t, 2, 3))
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestScale(t *testing.T) {
	t.Parallel()

	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	s, err := matrix.Scale(m, 2)
	require.NoError(t, err)
	require.Equal(t, []float64{2, 4, 6, 8}, s.RawData())
	require.Equal(t, []float64{1, 2, 3, 4}, m.RawData(), "Scale must not mutate input")

	_, err = matrix.Scale(nil, 2)
	require.ErrorIs(t, err, matrix.ErrNilMatrix)
}
