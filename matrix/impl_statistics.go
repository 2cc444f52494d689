// SPDX-License-Identifier: MIT

// Package matrix - row/column statistics.
//
// Purpose:
//   - Row sums (simplex invariant checks on weight matrices).
//   - Row L1 normalization (weight renormalization after truncation).
//
// Determinism:
//   - Fixed i→j traversal; no randomness.

package matrix

import (
	"github.com/viterin/vek"
)

const (
	opRowSums          = "RowSums"
	opNormalizeRowsL1  = "NormalizeRowsL1"
	opSquaredDistances = "SquaredDistances"
)

// RowSums returns Σ_j m[i,j] for every row i.
// Errors: ErrNilMatrix.
// Complexity: O(r*c).
func RowSums(m *Dense) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opRowSums, err)
	}
	out := make([]float64, m.r)
	for i := 0; i < m.r; i++ {
		out[i] = vek.Sum(m.RowView(i))
	}

	return out, nil
}

// NormalizeRowsL1 returns a copy of X with every row scaled to L1-norm 1,
// together with the original norms.
//
// Behavior highlights:
//   - Degenerate rows (norm==0) are left unchanged (stable policy).
//
// Errors:
//   - ErrNilMatrix.
//
// Complexity:
//   - Time O(r*c), Space O(r*c) (+ O(r) norms).
//
// AI-Hints:
//   - Prefer L1 normalization for row-stochastic style preprocessing.
func NormalizeRowsL1(X *Dense) (*Dense, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, matrixErrorf(opNormalizeRowsL1, err)
	}
	Y := X.Copy()
	norms := make([]float64, X.r)
	for i := 0; i < X.r; i++ {
		norms[i] = NormalizeL1(Y.RowView(i))
	}

	return Y, norms, nil
}

// NormalizeL1 scales row in place to L1-norm 1 and returns the original norm.
// A zero row is left unchanged and reports 0.
// Complexity: O(len(row)).
func NormalizeL1(row []float64) float64 {
	s := ZeroSum
	for _, v := range row {
		if v < 0 {
			v = -v
		}
		s += v
	}
	if s > 0 {
		vek.DivNumber_Inplace(row, s)
	}

	return s
}

// SquaredDistances returns the r_A×r_B matrix of squared Euclidean distances
// between the rows of a and the rows of b.
//
// Implementation:
//   - ‖a_i − b_j‖² accumulated directly per pair (no norm-expansion trick), so
//     identical rows give exactly 0.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (column counts differ).
//
// Complexity:
//   - Time O(r_A*r_B*c), Space O(r_A*r_B).
func SquaredDistances(a, b *Dense) (*Dense, error) {
	if err := ValidateSameCols(a, b); err != nil {
		return nil, matrixErrorf(opSquaredDistances, err)
	}
	res, err := NewDense(a.r, b.r)
	if err != nil {
		return nil, matrixErrorf(opSquaredDistances, err)
	}
	var i, j, k int
	var acc, d float64
	var ai, bj []float64
	for i = 0; i < a.r; i++ {
		ai = a.RowView(i)
		for j = 0; j < b.r; j++ {
			bj = b.RowView(j)
			acc = ZeroSum
			for k = 0; k < a.c; k++ {
				d = ai[k] - bj[k]
				acc += d * d
			}
			res.data[i*b.r+j] = acc
		}
	}

	return res, nil
}
