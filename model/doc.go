// Package model defines the classifier collaborator explainers work against
// and a small deterministic reference implementation.
//
// A Model exposes three views of the same network:
//
//	LatentRepresentation  x → h       (the vectors explainers decompose)
//	LatentToPresoftmax    h → logits  (the final linear layer)
//	Probabilities         x → softmax(logits)
//
// Classifier is a fixed random-feature encoder h = tanh(x·A + b) followed by
// a linear softmax head. Only the head is trained (momentum SGD with weight
// decay on mini-batches), so the latent map is fixed by the seed.
package model
