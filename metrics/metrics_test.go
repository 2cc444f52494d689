// SPDX-License-Identifier: MIT

package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/metrics"
)

func dense(t testing.TB, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewFromRows(rows)
	require.NoError(t, err)

	return m
}

func TestR2(t *testing.T) {
	truth := dense(t, [][]float64{{1, 5}, {2, 5}, {3, 5}})

	r, err := metrics.R2(truth, truth)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)

	// Column 0 predicted by its mean scores 0; constant column 1 exact scores 1.
	mean := dense(t, [][]float64{{2, 5}, {2, 5}, {2, 5}})
	r, err = metrics.R2(truth, mean)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r, 1e-12)

	// Column 0: SSres = 0.25·3 = 0.75, SStot = 2 → 0.625. Column 1 constant, missed → 0.
	off := dense(t, [][]float64{{1.5, 4}, {2.5, 4}, {3.5, 4}})
	r, err = metrics.R2(truth, off)
	require.NoError(t, err)
	assert.InDelta(t, 0.3125, r, 1e-12)

	_, err = metrics.R2(truth, dense(t, [][]float64{{1, 2}}))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestResidualsAndMSE(t *testing.T) {
	truth := dense(t, [][]float64{{0, 0}, {3, 4}})
	approx := dense(t, [][]float64{{0, 0}, {0, 0}})

	res, err := metrics.Residuals(truth, approx)
	require.NoError(t, err)
	assert.InDelta(t, 0, res[0], 1e-15)
	assert.InDelta(t, 3.5355339059327378, res[1], 1e-12)

	mse, err := metrics.MSE(truth, approx)
	require.NoError(t, err)
	assert.Equal(t, 6.25, mse)
}

func TestOutlierCurve(t *testing.T) {
	res := []float64{0.1, 5, 0.2, 3, 0.3}
	flags := []bool{false, true, false, false, true}

	curve, err := metrics.OutlierCurve(res, flags)
	require.NoError(t, err)
	// Ranking: 1 (outlier), 3, 4 (outlier), 2, 0.
	assert.Equal(t, []int{0, 1, 1, 2, 2}, curve)

	assert.Equal(t, []int{0, 1, 2, 2, 2}, metrics.IdealCurve(5, 2))
	assert.Equal(t, 6, metrics.CurveArea(curve))

	_, err = metrics.OutlierCurve(res, flags[:2])
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestRanking(t *testing.T) {
	assert.Equal(t, []int{1, 3, 4, 2, 0}, metrics.Ranking([]float64{0.1, 5, 0.2, 3, 0.3}))
	assert.Equal(t, []int{0, 2, 1}, metrics.Ranking([]float64{1, 0, 1}), "ties keep the lower index")
}

func TestRemainingAccuracy(t *testing.T) {
	// Examples 1 and 4 are outliers (label −1); example 2 is misclassified.
	labels := []int{0, -1, 1, 0, -1}
	pred := []int{0, 2, 0, 0, 1}
	order := []int{1, 4, 2, 0, 3}

	acc, err := metrics.RemainingAccuracy(order, pred, labels)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0 / 5, 2.0 / 4, 2.0 / 3, 1, 1}, acc, 1e-12)

	_, err = metrics.RemainingAccuracy(order[:3], pred, labels)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = metrics.RemainingAccuracy(order, pred[:4], labels)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestCurveFromOrder(t *testing.T) {
	curve, err := metrics.CurveFromOrder([]int{4, 1, 0, 2, 3}, []bool{false, true, false, false, true})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 2, 2}, curve)

	_, err = metrics.CurveFromOrder([]int{0}, []bool{true, false})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}
