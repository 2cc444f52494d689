// Package corpex explains the predictions of a latent-space model in terms
// of a corpus of examples the model has already seen.
//
// 🚀 What is corpex?
//
//	A test example's latent representation is approximated by a sparse convex
//	mixture of corpus latents. The mixture weights are the explanation:
//		• SimplEx: projected-gradient weights on the probability simplex,
//		  with an annealed sparsity penalty
//		• Nearest neighbors: uniform or inverse-distance weights over the k
//		  closest corpus latents
//		• Representer: per-corpus coefficients from a kernel ridge fit of the
//		  model's residuals, approximating outputs rather than latents
//
// ✨ Why corpex?
//
//   - Deterministic: every stochastic step takes an explicit seed
//   - Validated: weights always sum to one with at most n_keep non-zeros
//   - Persistent: fitted explainers round-trip through a file or SQLite store
//   - Measured: built-in approximation-quality and outlier experiments
//
// Packages:
//
//	explain/     — shared types, errors and weight validation
//	simplex/     — the SimplEx weight optimizer
//	nearest/     — k-nearest-neighbor baselines
//	representer/ — representer-point baseline
//	schedule/    — regularization schedules
//	matrix/      — dense linear algebra used by every explainer
//	model/       — a small seeded classifier exposing its latent space
//	dataset/     — seeded Gaussian-mixture data with outliers
//	metrics/     — R², residuals and outlier-detection curves
//	store/       — persistence of explainer states and model weights
//	experiment/  — the evaluation harness
//	cmd/corpex/  — command-line interface
//
// Quick example:
//
//	ex, _ := simplex.New(corpusLatents, simplex.WithKeep(3))
//	_ = ex.Fit(testLatents)
//	parts, _ := ex.Decompose(0) // corpus rows and weights explaining test #0
//
//	go install github.com/katalvlaran/corpex/cmd/corpex@latest
package corpex
