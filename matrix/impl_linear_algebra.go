// SPDX-License-Identifier: MIT
// Package matrix provides universal operations on any Matrix implementation:
// element-wise subtraction, matrix multiplication (plain and against a
// transposed right operand) and scalar scaling. All functions perform strict
// fail-fast validation and return clear errors on dimension mismatches.
//
// Purpose:
//   - Declare canonical linear-algebra kernels used by the explainers:
//     W·C (latent reconstruction), R·Cᵀ (weight gradient), X·Cᵀ (kernel similarities).
//   - Define operation tags and shared constants for determinism and error reporting.

package matrix

import (
	"fmt"

	"github.com/viterin/vek"
)

// ZeroSum is the initial sum value for accumulations.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opSub       = "Sub"
	opMul       = "Mul"
	opMulTransB = "MulTransB"
	opScale     = "Scale"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// addSub computes elementwise out = a + sign*b for sign ∈ {+1, -1}.
// Inputs must have identical shapes. A fresh Dense is allocated; operands are not mutated.
//
// Implementation:
//   - Stage 1: ValidateBinarySameShape(a, b). Allocate result Dense(rows, cols).
//   - Stage 2: Fast-path if both are *Dense - single flat loop 0..n-1.
//     Otherwise, fallback At/Set with fixed i→j order.
//
// Complexity:
//   - Time O(r*c), Space O(r*c) for the new result.
func addSub(a, b Matrix, sign float64, opTag string) (*Dense, error) {
	if err := ValidateBinarySameShape(a, b); err != nil {
		return nil, matrixErrorf(opTag, err)
	}
	rows, cols := a.Rows(), a.Cols()
	res, err := NewDense(rows, cols)
	if err != nil {
		return nil, matrixErrorf(opTag, err)
	}

	// Fast-path: both *Dense.
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			for k := range res.data {
				res.data[k] = da.data[k] + sign*db.data[k]
			}

			return res, nil
		}
	}

	// Fallback: interface access, fixed i→j order.
	var i, j int
	var av, bv float64
	for i = 0; i < rows; i++ {
		for j = 0; j < cols; j++ {
			if av, err = a.At(i, j); err != nil {
				return nil, matrixErrorf(opTag, err)
			}
			if bv, err = b.At(i, j); err != nil {
				return nil, matrixErrorf(opTag, err)
			}
			res.data[i*cols+j] = av + sign*bv
		}
	}

	return res, nil
}

// Sub returns a − b (same shape).
// Errors: ErrNilMatrix, ErrDimensionMismatch.
func Sub(a, b Matrix) (*Dense, error) { return addSub(a, b, -1, opSub) }

// Mul performs standard matrix multiplication C = A × B (no aliasing).
// Implementation:
//   - Stage 1: Validate A,B (not nil) and inner dimensions (A.Cols == B.Rows).
//   - Stage 2: If A and B are *Dense, use i→k→j with row-major strides and skip zeros;
//     otherwise use i→j→k with a fixed order and zero-skip on A[i,k].
//
// Behavior highlights:
//   - Deterministic triple loops; one allocation for C.
//   - Zero-skip makes W·C cheap for sparse (n_keep-truncated) weight rows.
//
// Errors:
//   - ErrNilMatrix (nil input), ErrDimensionMismatch (inner mismatch).
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
func Mul(a, b Matrix) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	aRows, aCols, bCols := a.Rows(), a.Cols(), b.Cols()
	res, err := NewDense(aRows, bCols)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	var (
		i, j, k         int
		av, bv, current float64
	)
	// Fast-path for two Dense matrices
	if da, okA := a.(*Dense); okA {
		if db, okB := b.(*Dense); okB {
			var rowOffsetA, rowOffsetB, rowOffsetR int
			for i = 0; i < aRows; i++ {
				rowOffsetA = i * aCols
				rowOffsetR = i * bCols
				for k = 0; k < aCols; k++ {
					av = da.data[rowOffsetA+k]
					if av == 0 {
						continue // skip zero for performance
					}
					rowOffsetB = k * bCols
					for j = 0; j < bCols; j++ {
						res.data[rowOffsetR+j] += av * db.data[rowOffsetB+j]
					}
				}
			}

			return res, nil
		}
	}

	// Fallback: generic interface triple-loop (i-j-k)
	for i = 0; i < aRows; i++ {
		for j = 0; j < bCols; j++ {
			current = ZeroSum
			for k = 0; k < aCols; k++ {
				av, err = a.At(i, k)
				if err != nil {
					return nil, matrixErrorf(opMul, err)
				}
				if av == 0 {
					continue
				}
				bv, err = b.At(k, j)
				if err != nil {
					return nil, matrixErrorf(opMul, err)
				}
				current += av * bv
			}
			res.data[i*bCols+j] = current
		}
	}

	return res, nil
}

// MulTransB computes C = A × Bᵀ without materializing Bᵀ.
// MAIN DESCRIPTION:
//   - Row-by-row dot products: C[i,j] = <A_i, B_j>. Both operands share the
//     column count (e.g. test latents T×D against corpus latents C×D gives
//     the T×C similarity matrix).
//
// Implementation:
//   - Stage 1: validate non-nil and A.Cols == B.Cols.
//   - Stage 2: for each (i,j) take vek.Dot over contiguous row slices.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch.
//
// Complexity:
//   - Time O(r_A * r_B * c), Space O(r_A * r_B).
func MulTransB(a, b *Dense) (*Dense, error) {
	if err := ValidateSameCols(a, b); err != nil {
		return nil, matrixErrorf(opMulTransB, err)
	}
	res, err := NewDense(a.r, b.r)
	if err != nil {
		return nil, matrixErrorf(opMulTransB, err)
	}
	var i, j int
	var ai []float64
	for i = 0; i < a.r; i++ {
		ai = a.RowView(i)
		for j = 0; j < b.r; j++ {
			res.data[i*b.r+j] = vek.Dot(ai, b.RowView(j))
		}
	}

	return res, nil
}

// Scale returns alpha*m as a new Dense.
// Errors: ErrNilMatrix.
// Complexity: O(r*c).
func Scale(m *Dense, alpha float64) (*Dense, error) {
	if m == nil {
		return nil, matrixErrorf(opScale, ErrNilMatrix)
	}
	res := m.Copy()
	vek.MulNumber_Inplace(res.data, alpha)

	return res, nil
}
