// Package matrix offers the dense row-major numeric containers and kernels
// behind the explainers.
//
// The matrix package provides:
//
//   - Dense: a flat row-major float64 matrix used for latent matrices
//     (rows = examples, cols = latent dimensions), weight matrices
//     (rows = test examples, cols = corpus examples) and class scores.
//   - Kernels: Mul (W·C), MulTransB (A·Bᵀ), Sub, Scale, SquaredDistances,
//     RowSums, NormalizeRowsL1 and its single-row form NormalizeL1.
//   - SolveSPD: ridge-regularized Cholesky solve backed by gonum.
//   - ParallelRows: row-parallel execution for embarrassingly parallel kernels.
//
// Public accessors never panic on user input; they return sentinel errors
// (ErrOutOfRange, ErrDimensionMismatch, ...) that callers match with errors.Is.
// RowView is the single hot-path exception and documents its panic.
package matrix
