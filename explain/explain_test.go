// SPDX-License-Identifier: MIT

package explain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

func dense(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewFromRows(rows)
	require.NoError(t, err)

	return m
}

func TestParseKind(t *testing.T) {
	for _, k := range explain.Kinds() {
		got, err := explain.ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := explain.ParseKind("knn")
	assert.Error(t, err)
}

func TestValidateWeights(t *testing.T) {
	ok := dense(t, [][]float64{{0.25, 0.75, 0}, {1, 0, 0}})
	require.NoError(t, explain.ValidateWeights(ok, explain.DefaultSimplexTolerance))

	cases := map[string][][]float64{
		"negative": {{1.5, -0.5}},
		"sum":      {{0.5, 0.4}},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			err := explain.ValidateWeights(dense(t, rows), explain.DefaultSimplexTolerance)
			assert.ErrorIs(t, err, explain.ErrNumericalInstability)
		})
	}

	nan, err := matrix.NewDense(1, 2)
	require.NoError(t, err)
	nan.RowView(0)[0] = math.NaN()
	assert.ErrorIs(t, explain.ValidateWeights(nan, 1), explain.ErrNumericalInstability)

	assert.ErrorIs(t, explain.ValidateWeights(nil, 1), explain.ErrNotFitted)
}

func TestDecompose(t *testing.T) {
	w := dense(t, [][]float64{{0.2, 0, 0.4, 0.4}})
	assert.Equal(t, 3, explain.Support(w.RowView(0)))

	got, err := explain.Decompose(w, 0)
	require.NoError(t, err)
	assert.Equal(t, []explain.Contribution{
		{Index: 2, Weight: 0.4},
		{Index: 3, Weight: 0.4}, // tie keeps the lower index first
		{Index: 0, Weight: 0.2},
	}, got)

	_, err = explain.Decompose(w, 1)
	assert.ErrorIs(t, err, explain.ErrOutOfRange)
	_, err = explain.Decompose(nil, 0)
	assert.ErrorIs(t, err, explain.ErrNotFitted)
}

func TestCheckLatentsAndKeep(t *testing.T) {
	c := dense(t, [][]float64{{0, 1}, {1, 0}})
	assert.NoError(t, explain.CheckLatents(c, dense(t, [][]float64{{1, 1}})))
	assert.ErrorIs(t, explain.CheckLatents(nil, c), explain.ErrEmptyCorpus)
	assert.ErrorIs(t, explain.CheckLatents(c, dense(t, [][]float64{{1, 1, 1}})), explain.ErrDimensionMismatch)

	assert.NoError(t, explain.CheckKeep(2, 2))
	assert.ErrorIs(t, explain.CheckKeep(0, 2), explain.ErrInvalidSparsity)
	assert.ErrorIs(t, explain.CheckKeep(3, 2), explain.ErrInvalidSparsity)
}

func TestStateValidate(t *testing.T) {
	corpus := dense(t, [][]float64{{0, 1}, {1, 0}})
	test := dense(t, [][]float64{{0.5, 0.5}})
	w := dense(t, [][]float64{{0.5, 0.5}})

	assert.NoError(t, explain.State{Kind: explain.KindSimplex, CorpusLatents: corpus, TestLatents: test, Weights: w}.Validate())
	assert.ErrorIs(t, explain.State{Kind: explain.KindSimplex, CorpusLatents: corpus}.Validate(), explain.ErrNotFitted)
	assert.ErrorIs(t, explain.State{Kind: explain.KindNNUniform, CorpusLatents: corpus, TestLatents: test,
		Weights: dense(t, [][]float64{{1}})}.Validate(), explain.ErrDimensionMismatch)
	assert.ErrorIs(t, explain.State{Kind: explain.KindRepresenter, CorpusLatents: corpus}.Validate(), explain.ErrDimensionMismatch)
	assert.ErrorIs(t, explain.State{Kind: "svm", CorpusLatents: corpus}.Validate(), explain.ErrKindMismatch)
	assert.ErrorIs(t, explain.State{Kind: explain.KindSimplex}.Validate(), explain.ErrEmptyCorpus)
}
