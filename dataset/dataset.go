// SPDX-License-Identifier: MIT

// Package dataset generates seeded synthetic classification data.
//
// Gaussian is a K-class isotropic Gaussian mixture in R^In. Sample draws
// labelled in-distribution examples; Outliers draws from a distribution
// whose centres sit far outside the class centres, so a model trained on
// Sample data has no corpus support for them. Every draw takes an explicit
// seed; nothing reads global random state.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/rng"
)

// ErrInvalidArgs reports non-positive sizes or spreads.
var ErrInvalidArgs = errors.New("dataset: invalid arguments")

// Defaults.
const (
	DefaultSpread        = 1.0
	DefaultSeparation    = 4.0
	DefaultOutlierFactor = 3.0
)

// Gaussian is a seeded isotropic Gaussian mixture.
type Gaussian struct {
	centres       *matrix.Dense // K×In
	spread        float64
	outlierFactor float64
}

// Batch is a labelled draw.
type Batch struct {
	X      *matrix.Dense // N×In
	Labels []int         // class index per row; -1 for outliers
}

// NewGaussian places K centres uniformly on a sphere of radius separation
// (seeded) with per-coordinate noise spread.
func NewGaussian(in, classes int, separation, spread float64, seed int64) (*Gaussian, error) {
	if in < 1 || classes < 2 || !(separation > 0) || !(spread > 0) {
		return nil, fmt.Errorf("NewGaussian(%d, %d, %g, %g): %w", in, classes, separation, spread, ErrInvalidArgs)
	}
	r := rng.New(seed)
	centres, err := matrix.NewDense(classes, in)
	if err != nil {
		return nil, err
	}
	for k := 0; k < classes; k++ {
		randomDirection(r, centres.RowView(k), separation)
	}

	return &Gaussian{centres: centres, spread: spread, outlierFactor: DefaultOutlierFactor}, nil
}

// Classes returns K.
func (g *Gaussian) Classes() int { return g.centres.Rows() }

// InputDim returns In.
func (g *Gaussian) InputDim() int { return g.centres.Cols() }

// Centres returns a copy of the class centres.
func (g *Gaussian) Centres() *matrix.Dense { return g.centres.Copy() }

// Sample draws n labelled examples, classes cycling 0..K-1 then shuffled.
func (g *Gaussian) Sample(n int, seed int64) (Batch, error) {
	if n < 1 {
		return Batch{}, fmt.Errorf("Sample(%d): %w", n, ErrInvalidArgs)
	}
	r := rng.New(seed)
	x, err := matrix.NewDense(n, g.InputDim())
	if err != nil {
		return Batch{}, err
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % g.Classes()
	}
	r.Shuffle(n, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })
	for i, k := range labels {
		row, c := x.RowView(i), g.centres.RowView(k)
		for j := range row {
			row[j] = c[j] + g.spread*r.NormFloat64()
		}
	}

	return Batch{X: x, Labels: labels}, nil
}

// Outliers draws n examples around fresh centres at outlierFactor times the
// class separation, in random directions. Labels are all -1.
func (g *Gaussian) Outliers(n int, seed int64) (Batch, error) {
	if n < 1 {
		return Batch{}, fmt.Errorf("Outliers(%d): %w", n, ErrInvalidArgs)
	}
	r := rng.New(seed)
	radius := g.outlierFactor * g.radius()
	x, err := matrix.NewDense(n, g.InputDim())
	if err != nil {
		return Batch{}, err
	}
	centre := make([]float64, g.InputDim())
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		randomDirection(r, centre, radius)
		row := x.RowView(i)
		for j := range row {
			row[j] = centre[j] + g.spread*r.NormFloat64()
		}
		labels[i] = -1
	}

	return Batch{X: x, Labels: labels}, nil
}

func (g *Gaussian) radius() float64 {
	row := g.centres.RowView(0)
	var s float64
	for _, v := range row {
		s += v * v
	}

	return math.Sqrt(s)
}

// Concat stacks two batches row-wise (a first).
func Concat(a, b Batch) (Batch, error) {
	if a.X.Cols() != b.X.Cols() {
		return Batch{}, fmt.Errorf("Concat: %w", matrix.ErrDimensionMismatch)
	}
	data := append(a.X.RawData(), b.X.RawData()...)
	x, err := matrix.NewFromData(a.X.Rows()+b.X.Rows(), a.X.Cols(), data)
	if err != nil {
		return Batch{}, err
	}
	labels := append(append([]int{}, a.Labels...), b.Labels...)

	return Batch{X: x, Labels: labels}, nil
}

// OneHot encodes labels as an N×K indicator matrix. Negative labels give a zero row.
func OneHot(labels []int, classes int) (*matrix.Dense, error) {
	m, err := matrix.NewDense(len(labels), classes)
	if err != nil {
		return nil, fmt.Errorf("OneHot: %w", err)
	}
	for i, y := range labels {
		if y >= classes {
			return nil, fmt.Errorf("OneHot: label %d >= %d: %w", y, classes, ErrInvalidArgs)
		}
		if y >= 0 {
			m.RowView(i)[y] = 1
		}
	}

	return m, nil
}

func randomDirection(r *rand.Rand, dst []float64, radius float64) {
	var s float64
	for j := range dst {
		dst[j] = r.NormFloat64()
		s += dst[j] * dst[j]
	}
	s = math.Sqrt(s)
	for j := range dst {
		dst[j] *= radius / s
	}
}

