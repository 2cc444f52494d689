// SPDX-License-Identifier: MIT

// Package matrix - Dense storage (row-major) & safe accessors.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the explicit index formula i*cols + j.
//   - Guarantee safety at the public surface: At/Set/Row return errors instead of panicking.
//   - Keep algorithmic determinism (fixed loop orders, no map iteration).
//   - Enforce a numeric policy (optional rejection of NaN/Inf) from a single source of truth.
//
// AI-Hints:
//   - Prefer fast-paths on *Dense in hot algebra (see impl_linear_algebra.go): operate on the flat data slice directly.
//   - RowView exposes a row without copying; treat it as read-only unless you own the matrix.
//   - DefaultValidateNaNInf is on; insert only finite values.
//
// Complexity quicksheet:
//   - NewDense: O(r*c) zero-init; At/Set: O(1); Clone: O(r*c); RowView: O(1).

package matrix

import (
	"fmt"
	"math"
	"strings"
)

// ---------- error context tags ----------

const (
	ctxAt      = "At"          // method tag used in error wrappers
	ctxSet     = "Set"         // method tag used in error wrappers
	ctxRow     = "Row"         // method tag used in error wrappers
	ctxSetRow  = "SetRow"      // method tag used in error wrappers
	ctxFromRow = "NewFromRows" // ctor tag
	ctxFromDat = "NewFromData" // ctor tag
)

// ---------- Formatting literals  ----------
const (
	_fmtRowOpen  = "["
	_fmtRowClose = "]\n"
	_fmtSep      = ", "
)

// denseErrorf wraps an error with a uniform Dense context and callsite indices.
// Stable, human-friendly messages; preserves the sentinel via %w.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}

// Dense is a concrete row-major matrix.
//   - r,c hold dimensions (rows, cols).
//   - data is a flat buffer of length r*c in row-major order (offset = i*c + j).
//   - validateNaNInf enables optional NaN/Inf rejection in Set.
type Dense struct {
	r, c           int       // row and column counts
	data           []float64 // contiguous row-major storage (len == r*c)
	validateNaNInf bool      // numeric guard: reject NaN/Inf in Set when true
}

// Compile-time assertions for interface & fmt.Stringer conformance.
var (
	_ Matrix       = (*Dense)(nil)
	_ fmt.Stringer = (*Dense)(nil)
)

// NewDense creates an r×c zero matrix using row-major storage.
// MAIN DESCRIPTION:
//   - Public constructor for Dense with strict shape validation and default numeric policy.
//
// Implementation:
//   - Stage 1: validate rows>0 && cols>0; else ErrInvalidDimensions.
//   - Stage 2: allocate zero-filled buffer and initialize policy.
//
// Errors:
//   - ErrInvalidDimensions (shape contract violation).
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	// make() zero-fills deterministically.
	buf := make([]float64, rows*cols)

	return &Dense{
		r:              rows,
		c:              cols,
		data:           buf,
		validateNaNInf: DefaultValidateNaNInf,
	}, nil
}

// NewFromRows builds a Dense from a slice of equally long rows (copied).
// MAIN DESCRIPTION:
//   - Convenience ingestion path for latent vectors captured from a model.
//
// Implementation:
//   - Stage 1: validate len(rows)>0, len(rows[0])>0 and equal lengths.
//   - Stage 2: copy row by row; reject NaN/Inf under the default policy.
//
// Errors:
//   - ErrInvalidDimensions (empty input), ErrRaggedRows, ErrNaNInf.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: %w", ctxFromRow, ErrInvalidDimensions)
	}
	r, c := len(rows), len(rows[0])
	m, err := NewDense(r, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ctxFromRow, err)
	}
	var i, j int
	for i = 0; i < r; i++ {
		if len(rows[i]) != c {
			return nil, fmt.Errorf("%s: row %d has %d values, want %d: %w", ctxFromRow, i, len(rows[i]), c, ErrRaggedRows)
		}
		for j = 0; j < c; j++ {
			if m.validateNaNInf && isNonFinite(rows[i][j]) {
				return nil, denseErrorf(ctxFromRow, i, j, ErrNaNInf)
			}
		}
		copy(m.data[i*c:(i+1)*c], rows[i])
	}

	return m, nil
}

// NewFromData wraps a copy of a flat row-major buffer as an rows×cols Dense.
// Errors: ErrInvalidDimensions, ErrDimensionMismatch (len(data) != rows*cols), ErrNaNInf.
// Complexity: O(r*c).
func NewFromData(rows, cols int, data []float64) (*Dense, error) {
	m, err := NewDense(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ctxFromDat, err)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%s: len %d != %d*%d: %w", ctxFromDat, len(data), rows, cols, ErrDimensionMismatch)
	}
	for k, v := range data {
		if isNonFinite(v) {
			return nil, denseErrorf(ctxFromDat, k/cols, k%cols, ErrNaNInf)
		}
	}
	copy(m.data, data)

	return m, nil
}

// Rows returns the row count. No side effects.
func (m *Dense) Rows() int { return m.r }

// Cols returns the column count. No side effects.
func (m *Dense) Cols() int { return m.c }

// Shape packs Rows() and Cols() into a single call for convenience.
func (m *Dense) Shape() (rows, cols int) { return m.r, m.c }

// indexOf computes the row-major offset or returns ErrOutOfRange.
// Public methods wrap the sentinel with coordinates and method name.
func (m *Dense) indexOf(row, col int) (int, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, ErrOutOfRange
	}

	return row*m.c + col, nil
}

// At returns m[row,col] or a wrapped ErrOutOfRange.
// Complexity: O(1).
func (m *Dense) At(row, col int) (float64, error) {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return 0, denseErrorf(ctxAt, row, col, err)
	}

	return m.data[idx], nil
}

// Set assigns v at (row,col).
// Under validateNaNInf, NaN/±Inf are rejected with ErrNaNInf.
// Complexity: O(1).
func (m *Dense) Set(row, col int, v float64) error {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return denseErrorf(ctxSet, row, col, err)
	}
	if m.validateNaNInf && isNonFinite(v) {
		return denseErrorf(ctxSet, row, col, ErrNaNInf)
	}
	m.data[idx] = v

	return nil
}

// Row returns a copy of row i.
// Errors: ErrOutOfRange.
// Complexity: O(c).
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, denseErrorf(ctxRow, i, 0, ErrOutOfRange)
	}
	out := make([]float64, m.c)
	copy(out, m.data[i*m.c:(i+1)*m.c])

	return out, nil
}

// RowView returns row i as a sub-slice of the backing buffer (no copy).
// The caller must not retain or mutate it unless it owns m.
// Panics on out-of-range i (internal hot-path accessor).
func (m *Dense) RowView(i int) []float64 {
	return m.data[i*m.c : (i+1)*m.c : (i+1)*m.c]
}

// SetRow overwrites row i with vals (copied).
// Errors: ErrOutOfRange, ErrDimensionMismatch, ErrNaNInf.
func (m *Dense) SetRow(i int, vals []float64) error {
	if i < 0 || i >= m.r {
		return denseErrorf(ctxSetRow, i, 0, ErrOutOfRange)
	}
	if len(vals) != m.c {
		return denseErrorf(ctxSetRow, i, len(vals), ErrDimensionMismatch)
	}
	if m.validateNaNInf {
		for j, v := range vals {
			if isNonFinite(v) {
				return denseErrorf(ctxSetRow, i, j, ErrNaNInf)
			}
		}
	}
	copy(m.data[i*m.c:(i+1)*m.c], vals)

	return nil
}

// RawData returns a copy of the flat row-major buffer.
// Complexity: O(r*c).
func (m *Dense) RawData() []float64 {
	out := make([]float64, len(m.data))
	copy(out, m.data)

	return out
}

// Clone returns a deep copy (same shape and policy).
// Complexity: O(r*c).
func (m *Dense) Clone() Matrix {
	return m.Copy()
}

// Copy is Clone with the concrete return type.
func (m *Dense) Copy() *Dense {
	cp := make([]float64, len(m.data))
	copy(cp, m.data)

	return &Dense{
		r:              m.r,
		c:              m.c,
		data:           cp,
		validateNaNInf: m.validateNaNInf, // preserve guard policy
	}
}

// String HUMAN-READABLE dump of rows for diagnostics.
// Not for hot paths; intended for logs and debugging.
func (m *Dense) String() string {
	var b strings.Builder
	var i, j, base int
	for i = 0; i < m.r; i++ {
		b.WriteString(_fmtRowOpen)
		base = i * m.c
		for j = 0; j < m.c; j++ {
			b.WriteString(fmt.Sprintf("%g", m.data[base+j]))
			if j+1 < m.c {
				b.WriteString(_fmtSep)
			}
		}
		b.WriteString(_fmtRowClose)
	}

	return b.String()
}

// isNonFinite reports NaN or ±Inf.
func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
