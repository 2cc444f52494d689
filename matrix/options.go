// SPDX-License-Identifier: MIT

// Package matrix: numeric policy defaults.
// These constants are the single source of truth for zero-value behavior.
package matrix

const (
	// DefaultValidateNaNInf toggles strict finite-value validation on Set and
	// on constructors that ingest caller data (NewFromRows, NewFromData).
	DefaultValidateNaNInf = true

	// DefaultWorkers is the worker count used by ParallelRows when callers pass n<1.
	DefaultWorkers = 1
)
