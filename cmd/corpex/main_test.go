// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/experiment"
)

const tinyYAML = `data:
  input_dim: 3
  classes: 2
  train_size: 60
  corpus_size: 20
  test_size: 4
  outlier_size: 4
model:
  hidden: 4
  train:
    epochs: 2
simplex:
  epochs: 100
neighbors: 3
n_keep_list: [3]
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, Execute())

	return out.String()
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tinyYAML), 0o600))

	return path
}

func TestRunThenInspect(t *testing.T) {
	cfg := writeConfig(t)
	dir := t.TempDir()

	out := execute(t, "run", "--experiment", experiment.NameQuality, "--config", cfg,
		"--store", dir, "--backend", "sqlite", "--json")
	var rep experiment.QualityReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Len(t, rep.Scores, 4)

	out = execute(t, "inspect", "--store", filepath.Join(dir, experiment.NameQuality),
		"--backend", "sqlite", "--kind", "simplex", "--keep", "3", "--test", "1", "--json")
	var dec map[int][]explain.Contribution
	require.NoError(t, json.Unmarshal([]byte(out), &dec))
	require.Contains(t, dec, 1)
	assert.LessOrEqual(t, len(dec[1]), 3)
	var sum float64
	for _, c := range dec[1] {
		sum += c.Weight
	}
	assert.InDelta(t, 1, sum, 1e-6)

	out = execute(t, "inspect", "--store", filepath.Join(dir, experiment.NameQuality),
		"--backend", "sqlite", "--kind", "nn_uniform", "--keep", "3", "--test", "-1", "--json=false")
	assert.Contains(t, out, "test #0")
	assert.Contains(t, out, "test #3")
}

func TestRunOutlierText(t *testing.T) {
	out := execute(t, "run", "--experiment", experiment.NameOutlier, "--config", writeConfig(t),
		"--store", t.TempDir(), "--backend", "file", "--json=false")
	assert.Contains(t, out, "DETECTOR")
	assert.Contains(t, out, "ACC@")
	assert.Contains(t, out, "ideal")
	assert.Contains(t, out, "simplex")
}

func TestInspectRepresenterHasNoDecomposition(t *testing.T) {
	dir := t.TempDir()
	execute(t, "run", "--experiment", experiment.NameQuality, "--config", writeConfig(t),
		"--store", dir, "--backend", "file", "--json")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"inspect", "--store", filepath.Join(dir, experiment.NameQuality),
		"--backend", "file", "--kind", "representer", "--test", "-1"})
	assert.Error(t, Execute())
}
