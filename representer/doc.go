// Package representer implements the linear representer baseline.
//
// Output logits of a test latent h are written as a kernel-weighted sum over
// the corpus: f(h) = Σ_i α_i ⟨h, c_i⟩, with one coefficient row α_i ∈ R^K per
// corpus example. The coefficients depend on the corpus only:
//
//	residual R = Y − P            (one-hot labels minus predicted probabilities)
//	λ'         = max(λ·C, floor)
//
//	KernelRidge   (C·Cᵀ + λ'·I) α = R   solved by Cholesky
//	Representer   α = R / (2·λ')        closed form of the representer theorem
//
// OutputApprox returns (X·Cᵀ)·α for the test latents given to Fit.
package representer
