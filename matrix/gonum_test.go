// SPDX-License-Identifier: MIT

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/stretchr/testify/require"
)

func TestSolveSPD(t *testing.T) {
	t.Parallel()

	a := NewFilledDense(t, 2, 2, []float64{4, 1, 1, 3})
	b := NewFilledDense(t, 2, 1, []float64{1, 2})

	x, err := matrix.SolveSPD(a, 0, b)
	require.NoError(t, err)

	// A·x must reproduce b.
	ax, err := matrix.Mul(a, x)
	require.NoError(t, err)
	CompareClose(t, ax, b, 1e-12)
}

// TestSolveSPD_RidgeLiftsRankDeficiency uses a rank-1 Gram matrix.
func TestSolveSPD_RidgeLiftsRankDeficiency(t *testing.T) {
	t.Parallel()

	a := NewFilledDense(t, 2, 2, []float64{1, 1, 1, 1})
	b := NewFilledDense(t, 2, 1, []float64{1, 0})

	_, err := matrix.SolveSPD(a, 0, b)
	require.ErrorIs(t, err, matrix.ErrNotPositiveDefinite)

	x, err := matrix.SolveSPD(a, 1e-3, b)
	require.NoError(t, err)
	require.Equal(t, 2, x.Rows())
}

func TestGonumRoundTrip(t *testing.T) {
	t.Parallel()

	m := RandFilledDense(t, 3, 2, 9)
	back, err := matrix.FromGonum(matrix.ToGonum(m))
	require.NoError(t, err)
	require.True(t, matrix.Equal(m, back))
}
