// Package explain holds the contract shared by every example-based explainer.
//
// An explainer approximates the latent representation of T test examples
// from a corpus of C reference examples. Three families live in sibling
// packages:
//
//	simplex/      — SimplEx: per-test sparse convex combination fitted by
//	                projected momentum gradient descent
//	nearest/      — k nearest corpus latents, uniform or inverse-distance weights
//	representer/  — global kernel attribution of output logits
//
// This package defines the Kind identifiers, the serializable State used by
// the persistence layer, Contribution (one row of a decomposition), the
// sentinel error taxonomy and the simplex invariant checks.
//
// Lifecycle of every explainer: constructed → Fit exactly once → queried
// read-only → optionally exported with State and restored for querying only.
package explain
