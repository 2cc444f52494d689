// SPDX-License-Identifier: MIT

package simplex

import "math"

// Penalty is a per-row sparsity regularizer on a weight row.
// Both methods receive the sparsity target nKeep; penalties that do not use
// it ignore it.
type Penalty interface {
	// Name identifies the penalty in persisted parameters and logs.
	Name() string

	// Value returns P(w) for one row.
	Value(w []float64, nKeep int) float64

	// Grad writes ∂P/∂w into dst (len(dst) == len(w)).
	Grad(w []float64, nKeep int, dst []float64)
}

// entropyFloor clamps weights inside log so zero entries stay finite.
const entropyFloor = 1e-12

// TailMass penalises the mass outside the row's n_keep largest entries:
// P(w) = Σ_{j ∉ top_k(w)} w_j. Its gradient is 1 on tail entries and 0 on
// kept ones, so it shrinks the support toward the sparsity target.
// Zero for any row whose support already fits in n_keep.
type TailMass struct{}

// Name implements Penalty.
func (TailMass) Name() string { return "tail_mass" }

// Value implements Penalty.
func (TailMass) Value(w []float64, nKeep int) float64 {
	if nKeep >= len(w) {
		return 0
	}
	var total, kept float64
	for _, v := range w {
		total += v
	}
	for _, j := range topIndices(w, nKeep) {
		kept += w[j]
	}

	return total - kept
}

// Grad implements Penalty.
func (TailMass) Grad(w []float64, nKeep int, dst []float64) {
	if nKeep >= len(w) {
		for j := range dst {
			dst[j] = 0
		}

		return
	}
	for j := range dst {
		dst[j] = 1
	}
	for _, j := range topIndices(w, nKeep) {
		dst[j] = 0
	}
}

// Entropy is the Shannon entropy H(w) = −Σ w_j log w_j. Minimising it pushes
// rows toward one-hot vectors; it is zero exactly on one-hot rows.
type Entropy struct{}

// Name implements Penalty.
func (Entropy) Name() string { return "entropy" }

// Value implements Penalty.
func (Entropy) Value(w []float64, _ int) float64 {
	var h float64
	for _, v := range w {
		if v > 0 {
			h -= v * math.Log(math.Max(v, entropyFloor))
		}
	}

	return h
}

// Grad implements Penalty.
func (Entropy) Grad(w []float64, _ int, dst []float64) {
	for j, v := range w {
		dst[j] = -(math.Log(math.Max(v, entropyFloor)) + 1)
	}
}

// PenaltyByName resolves a penalty by its Name ("tail_mass", "entropy").
func PenaltyByName(name string) (Penalty, bool) {
	switch name {
	case TailMass{}.Name():
		return TailMass{}, true
	case Entropy{}.Name():
		return Entropy{}, true
	}

	return nil, false
}
