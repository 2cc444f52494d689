// SPDX-License-Identifier: MIT

// Package metrics scores reconstructions: coefficient of determination,
// per-example residuals, the outlier-detection curve and the accuracy left
// after discarding flagged examples.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/corpex/matrix"
)

// R2 returns the uniform average over columns of the coefficient of
// determination of approx against truth. A constant truth column scores 1
// when reproduced exactly and 0 otherwise.
//
// Errors: matrix.ErrNilMatrix, matrix.ErrDimensionMismatch.
func R2(truth, approx *matrix.Dense) (float64, error) {
	if err := matrix.ValidateBinarySameShape(truth, approx); err != nil {
		return 0, fmt.Errorf("metrics.R2: %w", err)
	}
	nR, nC := truth.Shape()
	col, est := make([]float64, nR), make([]float64, nR)
	var total float64
	for j := 0; j < nC; j++ {
		for i := 0; i < nR; i++ {
			col[i], _ = truth.At(i, j)
			est[i], _ = approx.At(i, j)
		}
		total += columnR2(col, est)
	}

	return total / float64(nC), nil
}

func columnR2(truth, est []float64) float64 {
	mean := stat.Mean(truth, nil)
	var ssTot float64
	for _, v := range truth {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if floats.Equal(truth, est) {
			return 1
		}

		return 0
	}

	return stat.RSquaredFrom(est, truth, nil)
}

// MSE returns the mean squared difference over all entries.
func MSE(truth, approx *matrix.Dense) (float64, error) {
	if err := matrix.ValidateBinarySameShape(truth, approx); err != nil {
		return 0, fmt.Errorf("metrics.MSE: %w", err)
	}
	d, err := matrix.Sub(truth, approx)
	if err != nil {
		return 0, fmt.Errorf("metrics.MSE: %w", err)
	}
	raw := d.RawData()

	return floats.Dot(raw, raw) / float64(len(raw)), nil
}

// Residuals returns sqrt(mean_d (truth−approx)²) for every row.
func Residuals(truth, approx *matrix.Dense) ([]float64, error) {
	if err := matrix.ValidateBinarySameShape(truth, approx); err != nil {
		return nil, fmt.Errorf("metrics.Residuals: %w", err)
	}
	d, err := matrix.Sub(truth, approx)
	if err != nil {
		return nil, fmt.Errorf("metrics.Residuals: %w", err)
	}
	out := make([]float64, d.Rows())
	for i := range out {
		row := d.RowView(i)
		out[i] = math.Sqrt(floats.Dot(row, row) / float64(len(row)))
	}

	return out, nil
}

// OutlierCurve ranks examples by decreasing residual and returns, for every
// n in 0..len−1, how many outliers are among the n highest residuals.
// Ties keep the lower index first.
func OutlierCurve(residuals []float64, isOutlier []bool) ([]int, error) {
	if len(residuals) != len(isOutlier) {
		return nil, fmt.Errorf("metrics.OutlierCurve: %d residuals, %d flags: %w",
			len(residuals), len(isOutlier), matrix.ErrDimensionMismatch)
	}

	return CurveFromOrder(Ranking(residuals), isOutlier)
}

// Ranking returns example indices ordered by decreasing score, ties keeping
// the lower index first.
func Ranking(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	return order
}

// CurveFromOrder counts, for every n in 0..len−1, the outliers among the
// first n examples of order.
func CurveFromOrder(order []int, isOutlier []bool) ([]int, error) {
	if len(order) != len(isOutlier) {
		return nil, fmt.Errorf("metrics.CurveFromOrder: %d ranks, %d flags: %w",
			len(order), len(isOutlier), matrix.ErrDimensionMismatch)
	}
	curve := make([]int, len(order))
	for n := 1; n < len(order); n++ {
		curve[n] = curve[n-1]
		if isOutlier[order[n-1]] {
			curve[n]++
		}
	}

	return curve, nil
}

// RemainingAccuracy returns, for every n in 0..len−1, the fraction of
// correct predictions among the examples left after removing the first n
// of order. Labels no prediction can match (outliers carry −1) count as
// errors.
func RemainingAccuracy(order, predicted, labels []int) ([]float64, error) {
	if len(order) != len(labels) || len(predicted) != len(labels) {
		return nil, fmt.Errorf("metrics.RemainingAccuracy: %d ranks, %d predictions, %d labels: %w",
			len(order), len(predicted), len(labels), matrix.ErrDimensionMismatch)
	}
	out := make([]float64, len(order))
	correct := 0
	// Walk from the tail so each prefix removal is one subtraction.
	for n := len(order) - 1; n >= 0; n-- {
		if i := order[n]; predicted[i] == labels[i] {
			correct++
		}
		out[n] = float64(correct) / float64(len(order)-n)
	}

	return out, nil
}

// IdealCurve is the best achievable OutlierCurve: min(n, outliers).
func IdealCurve(total, outliers int) []int {
	curve := make([]int, total)
	for n := range curve {
		curve[n] = min(n, outliers)
	}

	return curve
}

// CurveArea sums a curve; larger means outliers were found earlier.
func CurveArea(curve []int) int {
	s := 0
	for _, v := range curve {
		s += v
	}

	return s
}
