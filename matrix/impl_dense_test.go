// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for the Dense implementation
// of the Matrix interface in the matrix package.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/stretchr/testify/require"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestRowsCols verifies that Rows() and Cols() return correct dimension values.
func TestRowsCols(t *testing.T) {
	m := MustDense(t, 3, 4)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 4, m.Cols())
	r, c := m.Shape()
	require.Equal(t, [2]int{3, 4}, [2]int{r, c})
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m := MustDense(t, 2, 2)

	_, err := m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 4.56), matrix.ErrOutOfRange)
	_, err = m.Row(5)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestSetRejectsNaNInf checks the default numeric policy.
func TestSetRejectsNaNInf(t *testing.T) {
	m := MustDense(t, 1, 1)
	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, m.Set(0, 0, math.Inf(-1)), matrix.ErrNaNInf)
	require.ErrorIs(t, m.SetRow(0, []float64{math.Inf(1)}), matrix.ErrNaNInf)
}

// TestNewFromRows covers the ingestion path for captured latent vectors.
func TestNewFromRows(t *testing.T) {
	m, err := matrix.NewFromRows([][]float64{{0, 0}, {1, 0}, {0, 1}})
	require.NoError(t, err)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 1.0, MustAt(t, m, 1, 0))

	_, err = matrix.NewFromRows([][]float64{{0, 0}, {1}})
	require.ErrorIs(t, err, matrix.ErrRaggedRows)

	_, err = matrix.NewFromRows(nil)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewFromData(2, 2, []float64{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{1, 0, 0, 2})

	clone := m.Clone()
	require.NoError(t, clone.Set(0, 0, 3.0))

	require.Equal(t, 1.0, MustAt(t, m, 0, 0))
	require.Equal(t, 3.0, MustAt(t, clone, 0, 0))
}

// TestRowAccessors checks Row (copy), RowView (alias) and SetRow.
func TestRowAccessors(t *testing.T) {
	m := NewFilledDense(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})

	row, err := m.Row(1)
	require.NoError(t, err)
	row[0] = 100
	require.Equal(t, 4.0, MustAt(t, m, 1, 0), "Row must copy")

	view := m.RowView(1)
	require.Equal(t, []float64{4, 5, 6}, view)

	require.NoError(t, m.SetRow(0, []float64{7, 8, 9}))
	require.Equal(t, []float64{7, 8, 9, 4, 5, 6}, m.RawData())
	require.ErrorIs(t, m.SetRow(0, []float64{1}), matrix.ErrDimensionMismatch)
}

// TestStringOutput checks that String() formats the matrix as expected.
func TestStringOutput(t *testing.T) {
	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	require.Equal(t, "[1, 2]\n[3, 4]\n", m.String())
}
