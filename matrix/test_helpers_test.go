// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic test fixtures and utilities for kernels.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing the interface fallback paths in kernels that accept Matrix.
type hide struct{ matrix.Matrix }

// MustDense allocates an r×c *Dense or fails the test.
func MustDense(t testing.TB, r, c int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(r, c)
	require.NoError(t, err)

	return m
}

// NewFilledDense builds an r×c Dense from row-major vals.
func NewFilledDense(t testing.TB, r, c int, vals []float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewFromData(r, c, vals)
	require.NoError(t, err)

	return m
}

// RandFilledDense fills an r×c Dense with uniform values in [-1,1) from seed.
func RandFilledDense(t testing.TB, r, c int, seed int64) *matrix.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	vals := make([]float64, r*c)
	for k := range vals {
		vals[k] = 2*rng.Float64() - 1
	}

	return NewFilledDense(t, r, c, vals)
}

// MustAt reads m[i,j] or fails the test.
func MustAt(t testing.TB, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// CompareClose asserts |a−b| ≤ atol element-wise on same-shaped matrices.
func CompareClose(t testing.TB, a, b *matrix.Dense, atol float64) {
	t.Helper()
	require.Equal(t, a.Rows(), b.Rows())
	require.Equal(t, a.Cols(), b.Cols())
	require.InDeltaSlicef(t, b.RawData(), a.RawData(), atol, "matrices differ:\n%s\nvs\n%s", a, b)
}
