// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for common validation checks.
//  - Keep kernels/facades minimal by delegating shape/nil checks here.
//  - Return sentinel errors tagged with the validator name so call sites can wrap uniformly.
//
// Determinism & Performance:
//  - All checks are pure, deterministic and allocate nothing.
//
// Note:
//  - Each composite validator follows a fixed sequence (e.g. NotNil → Shape).

package matrix

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
// A typed-nil *Dense stored in the interface is rejected as well.
// Complexity: O(1).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}
	if d, ok := m.(*Dense); ok && d == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSameShape ensures matrices a and b have equal dimensions.
// Assumes a and b are not nil (caller must ensure).
// Complexity: O(1).
func ValidateSameShape(a, b Matrix) error {
	if a.Rows() != b.Rows() {
		return validatorErrorf("ValidateSameShape: Rows", ErrDimensionMismatch)
	}
	if a.Cols() != b.Cols() {
		return validatorErrorf("ValidateSameShape: Columns", ErrDimensionMismatch)
	}

	return nil
}

// ValidateSameCols ensures a and b share the same column count (latent width).
// Rows may differ: corpus C×D against test T×D.
// Complexity: O(1).
func ValidateSameCols(a, b Matrix) error {
	if err := ValidateNotNil(a); err != nil {
		return validatorErrorf("ValidateSameCols", err)
	}
	if err := ValidateNotNil(b); err != nil {
		return validatorErrorf("ValidateSameCols", err)
	}
	if a.Cols() != b.Cols() {
		return validatorErrorf("ValidateSameCols", ErrDimensionMismatch)
	}

	return nil
}

// ValidateBinarySameShape – Composite: NotNil(a) → NotNil(b) → SameShape.
// Complexity: O(1).
func ValidateBinarySameShape(a, b Matrix) error {
	if err := ValidateNotNil(a); err != nil {
		return validatorErrorf("ValidateBinarySameShape", err)
	}
	if err := ValidateNotNil(b); err != nil {
		return validatorErrorf("ValidateBinarySameShape", err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return validatorErrorf("ValidateBinarySameShape", err)
	}

	return nil
}

// ValidateMulCompatible ensures a.Cols == b.Rows, inputs non-nil.
// Complexity: O(1).
func ValidateMulCompatible(a, b Matrix) error {
	if err := ValidateNotNil(a); err != nil {
		return validatorErrorf("ValidateMulCompatible", err)
	}
	if err := ValidateNotNil(b); err != nil {
		return validatorErrorf("ValidateMulCompatible", err)
	}
	if a.Cols() != b.Rows() {
		return validatorErrorf("ValidateMulCompatible", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite scans m for NaN/±Inf.
// Complexity: O(r*c).
func ValidateFinite(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateFinite", ErrNilMatrix)
	}
	for k, v := range m.data {
		if isNonFinite(v) {
			return validatorErrorf("ValidateFinite", denseErrorf(ctxAt, k/m.c, k%m.c, ErrNaNInf))
		}
	}

	return nil
}
