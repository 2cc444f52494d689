// SPDX-License-Identifier: MIT

package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/corpex/matrix"
)

// DefaultSimplexTolerance bounds |Σ_j w_j − 1| for a valid weight row.
const DefaultSimplexTolerance = 1e-6

// ValidateWeights checks that every row of w lies on the probability simplex:
// entries finite and non-negative, row sums within tol of 1.
// Violations are reported as ErrNumericalInstability with the offending row.
func ValidateWeights(w *matrix.Dense, tol float64) error {
	if w == nil {
		return fmt.Errorf("ValidateWeights: %w", ErrNotFitted)
	}
	for i := 0; i < w.Rows(); i++ {
		for j, v := range w.RowView(i) {
			if math.IsNaN(v) || v < 0 {
				return fmt.Errorf("ValidateWeights: row %d col %d value %g: %w", i, j, v, ErrNumericalInstability)
			}
		}
	}
	sums, err := matrix.RowSums(w)
	if err != nil {
		return fmt.Errorf("ValidateWeights: %w", err)
	}
	for i, s := range sums {
		if math.Abs(s-1) > tol {
			return fmt.Errorf("ValidateWeights: row %d sums to %g: %w", i, s, ErrNumericalInstability)
		}
	}

	return nil
}

// Support counts the strictly positive entries of a weight row.
func Support(row []float64) int {
	n := 0
	for _, v := range row {
		if v > 0 {
			n++
		}
	}

	return n
}

// DecomposeRow turns one weight row into contributions sorted by decreasing
// weight (ties: lower corpus index first), zero entries omitted.
func DecomposeRow(row []float64) []Contribution {
	out := make([]Contribution, 0, Support(row))
	for j, v := range row {
		if v > 0 {
			out = append(out, Contribution{Index: j, Weight: v})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Weight > out[b].Weight })

	return out
}

// Decompose applies DecomposeRow to row t of w with bounds checking.
func Decompose(w *matrix.Dense, t int) ([]Contribution, error) {
	if w == nil {
		return nil, fmt.Errorf("Decompose: %w", ErrNotFitted)
	}
	if t < 0 || t >= w.Rows() {
		return nil, fmt.Errorf("Decompose(%d): %w", t, ErrOutOfRange)
	}

	return DecomposeRow(w.RowView(t)), nil
}

// CheckLatents validates a corpus/test pair: both non-empty with equal widths.
func CheckLatents(corpus, test *matrix.Dense) error {
	if corpus == nil {
		return ErrEmptyCorpus
	}
	if test == nil {
		return fmt.Errorf("test latents: %w", ErrDimensionMismatch)
	}
	if corpus.Cols() != test.Cols() {
		return fmt.Errorf("corpus width %d, test width %d: %w", corpus.Cols(), test.Cols(), ErrDimensionMismatch)
	}

	return nil
}

// CheckKeep validates n_keep against the corpus size.
func CheckKeep(nKeep, corpusSize int) error {
	if nKeep < 1 || nKeep > corpusSize {
		return fmt.Errorf("n_keep=%d corpus=%d: %w", nKeep, corpusSize, ErrInvalidSparsity)
	}

	return nil
}
