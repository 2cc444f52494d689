// SPDX-License-Identifier: MIT

package explain

import "errors"

// Error taxonomy shared by all explainers. Every message is prefixed with
// "explain:"; packages wrap these with an operation tag and callers match
// with errors.Is.
var (
	// ErrDimensionMismatch: corpus and test latent widths differ (or any other
	// shape disagreement between inputs). Fatal, never recovered.
	ErrDimensionMismatch = errors.New("explain: dimension mismatch")

	// ErrInvalidSparsity: n_keep outside [1, C]. Raised at fit entry.
	ErrInvalidSparsity = errors.New("explain: sparsity target outside [1, corpus size]")

	// ErrDegenerateRegression: the representer system stayed singular even
	// after the ridge floor was applied.
	ErrDegenerateRegression = errors.New("explain: degenerate regression")

	// ErrNumericalInstability: a projected weight row contained NaN, a negative
	// entry or did not sum to one. Indicates an algorithm bug; the fit aborts.
	ErrNumericalInstability = errors.New("explain: numerical instability")

	// ErrNotFitted: a query was issued before Fit.
	ErrNotFitted = errors.New("explain: explainer is not fitted")

	// ErrAlreadyFitted: Fit was called twice, or on a restored explainer.
	ErrAlreadyFitted = errors.New("explain: explainer is already fitted")

	// ErrEmptyCorpus: the corpus latent matrix is nil or empty.
	ErrEmptyCorpus = errors.New("explain: empty corpus")

	// ErrKindMismatch: a State of one kind was restored into another explainer.
	ErrKindMismatch = errors.New("explain: state kind mismatch")

	// ErrOutOfRange: a test index passed to Decompose is outside [0, T).
	ErrOutOfRange = errors.New("explain: test index out of range")
)
