// SPDX-License-Identifier: MIT

package simplex

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

// Project returns the Euclidean projection of v onto the probability simplex
// {w : w ≥ 0, Σw = 1}. v is not modified.
//
// Implementation (sort-based, exact):
//   - Stage 1: u = v sorted descending, running sums s_k = Σ_{i≤k} u_i.
//   - Stage 2: ρ = max{k : u_k − (s_k − 1)/(k+1) > 0}.
//   - Stage 3: θ = (s_ρ − 1)/(ρ+1); w_j = max(v_j − θ, 0).
//
// Edge cases:
//   - A row already on the simplex is returned unchanged (θ = 0).
//   - All-equal entries map to the uniform vector 1/n.
//   - An empty row returns an empty row.
//
// Errors: explain.ErrNumericalInstability if v holds NaN or ±Inf.
// Complexity: O(n log n) time, O(n) space.
func Project(v []float64) ([]float64, error) {
	for j, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("simplex.Project: entry %d value %g: %w", j, x, explain.ErrNumericalInstability)
		}
	}
	out := make([]float64, len(v))
	if len(v) == 0 {
		return out, nil
	}
	copy(out, v)
	projectInPlace(out, make([]float64, len(v)))

	return out, nil
}

// projectInPlace projects w onto the simplex using scratch (len(w)) as the
// sorted buffer. Hot-path variant of Project for the optimizer.
func projectInPlace(w, scratch []float64) {
	n := len(w)
	copy(scratch, w)
	sort.Sort(sort.Reverse(sort.Float64Slice(scratch)))

	var (
		cum, theta float64
		k          int
	)
	rho, cumRho := 0, scratch[0]
	for k = 0; k < n; k++ {
		cum += scratch[k]
		if scratch[k]-(cum-1)/float64(k+1) > 0 {
			rho, cumRho = k, cum
		}
	}
	theta = (cumRho - 1) / float64(rho+1)

	for k = 0; k < n; k++ {
		if w[k] > theta {
			w[k] -= theta
		} else {
			w[k] = 0
		}
	}
}

// topIndices returns the indices of the k largest entries of row, ordered by
// decreasing value; ties keep the lower index first.
func topIndices(row []float64, k int) []int {
	idx := make([]int, len(row))
	for j := range idx {
		idx[j] = j
	}
	sort.SliceStable(idx, func(a, b int) bool { return row[idx[a]] > row[idx[b]] })
	if k < len(idx) {
		idx = idx[:k]
	}

	return idx
}

// keepTop zeroes every entry of row outside its k largest and renormalises
// the survivors to sum to one. If the survivors sum to zero, mass is spread
// uniformly over them.
func keepTop(row []float64, k int) {
	if k >= len(row) {
		return
	}
	keep := topIndices(row, k)
	kept := make([]float64, len(keep))
	for i, j := range keep {
		kept[i] = row[j]
	}
	if matrix.NormalizeL1(kept) == 0 {
		for i := range kept {
			kept[i] = 1 / float64(len(kept))
		}
	}
	for j := range row {
		row[j] = 0
	}
	for i, j := range keep {
		row[j] = kept[i]
	}
}
