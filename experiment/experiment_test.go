// SPDX-License-Identifier: MIT

package experiment_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/experiment"
	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/simplex"
	"github.com/katalvlaran/corpex/store"
)

// tinyConfig keeps every run well under a second.
func tinyConfig(dir string) experiment.Config {
	cfg := experiment.DefaultConfig()
	cfg.Data.InputDim = 4
	cfg.Data.Classes = 2
	cfg.Data.TrainSize = 80
	cfg.Data.CorpusSize = 30
	cfg.Data.TestSize = 10
	cfg.Data.OutlierSize = 10
	cfg.Model.Hidden = 6
	cfg.Model.Train.Epochs = 3
	cfg.Simplex.Epochs = 200
	cfg.NKeepList = []int{2, 5}
	cfg.Neighbors = 3
	cfg.Store.Dir = dir

	return cfg
}

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, experiment.DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*experiment.Config)
	}{
		{"classes", func(c *experiment.Config) { c.Data.Classes = 1 }},
		{"corpus", func(c *experiment.Config) { c.Data.CorpusSize = 0 }},
		{"spread", func(c *experiment.Config) { c.Data.Spread = 0 }},
		{"momentum", func(c *experiment.Config) { c.Simplex.Momentum = 1 }},
		{"penalty", func(c *experiment.Config) { c.Simplex.Penalty = "l1" }},
		{"n_keep", func(c *experiment.Config) { c.NKeepList = []int{c.Data.CorpusSize + 1} }},
		{"neighbors", func(c *experiment.Config) { c.Neighbors = 0 }},
		{"method", func(c *experiment.Config) { c.Repr.Method = "svm" }},
		{"backend", func(c *experiment.Config) { c.Store.Backend = "redis" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := experiment.DefaultConfig()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), experiment.ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	yml := []byte(`seed: 7
cv: 2
data:
  corpus_size: 40
simplex:
  penalty: entropy
n_keep_list: [3, 4]
store:
  backend: sqlite
`)
	require.NoError(t, os.WriteFile(path, yml, 0o600))

	cfg, err := experiment.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 2, cfg.CV)
	assert.Equal(t, 40, cfg.Data.CorpusSize)
	assert.Equal(t, experiment.DefaultInputDim, cfg.Data.InputDim, "unset fields keep defaults")
	assert.Equal(t, "entropy", cfg.Simplex.Penalty)
	assert.Equal(t, []int{3, 4}, cfg.NKeepList)
	assert.Equal(t, store.BackendSQLite, cfg.Store.Backend)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sed: 7\n"), 0o600))
	_, err := experiment.LoadConfig(path)
	assert.Error(t, err)

	_, err = experiment.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApproximationQuality(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer
	r := &experiment.Runner{Config: tinyConfig(dir), Logger: quietLogger(&logs)}

	rep, err := r.ApproximationQuality(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	// three weight-based explainers per n_keep plus the representer
	require.Len(t, rep.Scores, 3*2+1)

	for _, s := range rep.Scores {
		assert.LessOrEqual(t, s.OutputR2, 1.0)
		if s.Explainer == explain.KindRepresenter {
			assert.Nil(t, s.LatentR2)
			continue
		}
		require.NotNil(t, s.LatentR2)
		assert.LessOrEqual(t, *s.LatentR2, 1.0)
	}
	assert.Contains(t, logs.String(), "explainer scored")
	assert.Contains(t, logs.String(), rep.RunID)

	// Every fitted explainer and the model were persisted.
	fs, err := store.NewFileStore(filepath.Join(dir, experiment.NameQuality))
	require.NoError(t, err)
	keys, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 3*2+1)

	st, err := fs.Load(context.Background(), store.Key{Kind: explain.KindSimplex, CV: 0, Keep: 5})
	require.NoError(t, err)
	sx, err := simplex.Restore(st)
	require.NoError(t, err)
	support, err := sx.Decompose(0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(support), 5)

	mats, err := fs.LoadMatrices(context.Background(), "model_cv0")
	require.NoError(t, err)
	assert.Contains(t, mats, "encoder")

	cfg := r.Config
	corpus, err := fs.LoadMatrices(context.Background(), "corpus_data_cv0")
	require.NoError(t, err)
	require.Len(t, corpus, 3)
	assertShape(t, corpus["latents"], cfg.Data.CorpusSize, cfg.Model.Hidden)
	assertShape(t, corpus["probabilities"], cfg.Data.CorpusSize, cfg.Data.Classes)
	assertShape(t, corpus["true_classes"], cfg.Data.CorpusSize, 1)

	test, err := fs.LoadMatrices(context.Background(), "test_data_cv0")
	require.NoError(t, err)
	assertShape(t, test["latents"], cfg.Data.TestSize, cfg.Model.Hidden)
	assertShape(t, test["targets"], cfg.Data.TestSize, 1)

	assert.GreaterOrEqual(t, rep.ModelTestAccuracy, 0.0)
	assert.LessOrEqual(t, rep.ModelTestAccuracy, 1.0)
	assert.Contains(t, logs.String(), "test_accuracy")
}

func assertShape(t *testing.T, m *matrix.Dense, rows, cols int) {
	t.Helper()
	require.NotNil(t, m)
	r, c := m.Shape()
	assert.Equal(t, rows, r)
	assert.Equal(t, cols, c)
}

func TestApproximationQualityDeterministic(t *testing.T) {
	cfg := tinyConfig("")
	a, err := experiment.ApproximationQuality(context.Background(), cfg)
	require.NoError(t, err)
	b, err := experiment.ApproximationQuality(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Scores, b.Scores)
}

func TestOutlierDetection(t *testing.T) {
	cfg := tinyConfig("")
	backend, err := store.Open(store.BackendSQLite, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	r := &experiment.Runner{Config: cfg, Store: backend, Logger: quietLogger(&bytes.Buffer{})}
	rep, err := r.OutlierDetection(context.Background())
	require.NoError(t, err)

	total := cfg.Data.TestSize + cfg.Data.OutlierSize
	assert.Equal(t, total, rep.Test)
	assert.Equal(t, cfg.Data.OutlierSize, rep.Outliers)
	for _, name := range []string{"simplex", "nn_uniform", "nn_dist", "random", "ideal"} {
		curve, ok := rep.Curves[name]
		require.True(t, ok, name)
		require.Len(t, curve, total, name)
		assert.Equal(t, 0, curve[0], name)
		for n := 1; n < total; n++ {
			step := curve[n] - curve[n-1]
			assert.True(t, step == 0 || step == 1, "%s: curve must grow by 0 or 1", name)
		}
		assert.LessOrEqual(t, rep.Areas[name], rep.Areas["ideal"], name)
	}

	for _, name := range []string{"simplex", "nn_uniform", "nn_dist", "random"} {
		acc, ok := rep.Accuracy[name]
		require.True(t, ok, name)
		require.Len(t, acc, total, name)
		// Nothing removed yet: every ordering scores the whole test set.
		assert.Equal(t, rep.Accuracy["random"][0], acc[0], name)
		assert.LessOrEqual(t, acc[0], float64(cfg.Data.TestSize)/float64(total), name)
		for _, v := range acc {
			assert.True(t, v >= 0 && v <= 1, "%s: accuracy %g", name, v)
		}
	}
	_, ok := rep.Accuracy["ideal"]
	assert.False(t, ok)

	keys, err := backend.List(context.Background())
	require.NoError(t, err)
	assert.Contains(t, keys, store.Key{Kind: explain.KindSimplex, CV: 0, Keep: cfg.Data.CorpusSize})

	test, err := backend.LoadMatrices(context.Background(), "test_data_cv0")
	require.NoError(t, err)
	assertShape(t, test["targets"], total, 1)
	outliers := 0
	for _, y := range test["targets"].RawData() {
		if y < 0 {
			outliers++
		}
	}
	assert.Equal(t, cfg.Data.OutlierSize, outliers)
	_, err = backend.LoadMatrices(context.Background(), "corpus_data_cv0")
	assert.NoError(t, err)
}

func TestOutlierDetectionNeedsOutliers(t *testing.T) {
	cfg := tinyConfig("")
	cfg.Data.OutlierSize = 0
	_, err := experiment.OutlierDetection(context.Background(), cfg)
	assert.ErrorIs(t, err, experiment.ErrInvalidConfig)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &experiment.Runner{Config: tinyConfig(""), Logger: quietLogger(&bytes.Buffer{})}
	_, err := r.Run(ctx, experiment.NameQuality)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRunUnknownExperiment(t *testing.T) {
	r := &experiment.Runner{Config: tinyConfig("")}
	_, err := r.Run(context.Background(), "mnist")
	assert.ErrorIs(t, err, experiment.ErrInvalidConfig)
}
