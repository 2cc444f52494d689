// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// This file defines ONLY package-level sentinel errors used across the matrix
// package. All kernels MUST return these sentinels (optionally wrapped with an
// operation tag) and tests MUST check them via errors.Is. No kernel panics on
// user-triggered error conditions.

package matrix

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "matrix: ..." for easy grepping across logs.
// Kernels wrap with matrixErrorf(op, ErrX); callers match with errors.Is.
//
// ERROR PRIORITY (documented, enforced in tests):
// nil -> shape/index -> dimension mismatch -> NaN/Inf -> numeric failure.

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set/Row) MUST return this, not panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g., Add/Sub different shapes, or Mul where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrRaggedRows is returned by NewFromRows when rows differ in length.
	ErrRaggedRows = errors.New("matrix: rows have different lengths")

	// ErrNaNInf signals a NaN or ±Inf value was encountered where finite values
	// are required by the numeric policy.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates that a nil Matrix (receiver or argument) was used.
	ErrNilMatrix = errors.New("matrix: nil receiver")

	// ErrNotPositiveDefinite is returned by SolveSPD when the Cholesky
	// factorization fails.
	ErrNotPositiveDefinite = errors.New("matrix: matrix is not positive definite")
)
