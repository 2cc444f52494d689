// Package nearest implements the k-nearest-neighbor baseline explainer.
//
// Each test latent is approximated from its k closest corpus latents
// (Euclidean distance, ties broken by lower corpus index). Two weightings:
//
//	Uniform  — 1/k on every neighbor (the reconstruction is their mean)
//	Distance — w ∝ 1/d; a test point that coincides with a corpus point
//	           gets weight 1 on the first exact match and 0 elsewhere
//
// The resulting T×C weight rows satisfy the same simplex invariants as
// SimplEx weights, so both share LatentApprox/Decompose/State semantics.
package nearest
