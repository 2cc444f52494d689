// Package experiment runs the two evaluation experiments end to end on a
// seeded synthetic mixture:
//
//   - ApproximationQuality: for each sparsity target, fit simplex and the
//     nearest-neighbor baselines on test latents, score latent and output
//     R²; fit the representer once and score its outputs.
//   - OutlierDetection: mix in-distribution examples with far-away outliers
//     and count how many outliers each detector ranks first by residual.
//
// Config is YAML (LoadConfig). Fitted explainers and the trained model are
// persisted through package store when Config.Store.Dir is set. Runs log
// through log/slog and are tagged with a random run ID.
package experiment
