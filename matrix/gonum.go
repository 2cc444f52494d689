// SPDX-License-Identifier: MIT

// Package matrix - bridge to gonum for factorizations.
//
// Dense keeps its own flat buffer; the bridge copies in both directions so a
// gonum value never aliases an explainer's state.

package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const opSolveSPD = "SolveSPD"

// ToGonum copies m into a new *mat.Dense.
func ToGonum(m *Dense) *mat.Dense {
	return mat.NewDense(m.r, m.c, m.RawData())
}

// FromGonum copies any gonum matrix into a new Dense.
// Errors: ErrInvalidDimensions for empty inputs.
func FromGonum(g mat.Matrix) (*Dense, error) {
	r, c := g.Dims()
	res, err := NewDense(r, c)
	if err != nil {
		return nil, err
	}
	var i, j int
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			res.data[i*c+j] = g.At(i, j)
		}
	}

	return res, nil
}

// SolveSPD solves (A + ridge·I)·X = B for a symmetric positive (semi)definite A
// using a Cholesky factorization.
// MAIN DESCRIPTION:
//   - Ridge-regularized normal-equation solve. ridge>0 lifts a rank-deficient
//     PSD matrix to strictly positive definite.
//
// Implementation:
//   - Stage 1: validate A square, B.Rows == A.Rows.
//   - Stage 2: symmetrize (A+Aᵀ)/2 into a SymDense, add ridge on the diagonal.
//   - Stage 3: mat.Cholesky.Factorize; on failure return ErrNotPositiveDefinite.
//   - Stage 4: SolveTo and copy back.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrNotPositiveDefinite.
//
// Complexity:
//   - Time O(n³ + n²k), Space O(n² + nk).
func SolveSPD(a *Dense, ridge float64, b *Dense) (*Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opSolveSPD, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opSolveSPD, err)
	}
	n := a.r
	if a.c != n || b.r != n {
		return nil, matrixErrorf(opSolveSPD, ErrDimensionMismatch)
	}

	sym := mat.NewSymDense(n, nil)
	var i, j int
	for i = 0; i < n; i++ {
		for j = i; j < n; j++ {
			v := 0.5 * (a.data[i*n+j] + a.data[j*n+i])
			if i == j {
				v += ridge
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, matrixErrorf(opSolveSPD, fmt.Errorf("ridge %g: %w", ridge, ErrNotPositiveDefinite))
	}
	var x mat.Dense
	if err := chol.SolveTo(&x, ToGonum(b)); err != nil {
		return nil, matrixErrorf(opSolveSPD, fmt.Errorf("%v: %w", err, ErrNotPositiveDefinite))
	}

	res, err := FromGonum(&x)
	if err != nil {
		return nil, matrixErrorf(opSolveSPD, err)
	}

	return res, nil
}
