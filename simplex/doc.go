// Package simplex implements SimplEx: each test latent vector is approximated
// by a sparse convex combination of corpus latent vectors.
//
// MAIN DESCRIPTION:
//   - Weights W (T×C) start on the probability simplex (uniform, or a seeded
//     random point) and are trained by projected heavy-ball gradient descent
//     on the objective
//
//     L(W) = mean((W·C − X)²) + r(e) · mean_t P(w_t)
//
//     where r(e) follows a regularization schedule (exponential by default)
//     and P is a sparsity-promoting penalty (TailMass by default, Entropy as
//     an alternative).
//   - After every step each row is projected exactly onto the simplex
//     (Project). After the last epoch only the n_keep largest entries of every
//     row are kept and the row is renormalised.
//
// Gradient (closed form):
//
//	∇L = (2/(T·D)) · (W·C − X) · Cᵀ + (r/T) · ∇P(W)
//
// Guarantees:
//   - Every fitted row is non-negative and sums to 1 (within 1e-6).
//   - Every fitted row has at most n_keep strictly positive entries.
//   - Results are deterministic for a fixed seed and independent of the
//     worker count.
//
// Complexity per epoch: O(T·C·D) for the reconstruction and the gradient,
// O(T·C log C) for the projections.
package simplex
