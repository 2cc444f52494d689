// SPDX-License-Identifier: MIT

package model

import (
	"errors"

	"github.com/katalvlaran/corpex/matrix"
)

// Model is the classifier surface needed by the explainers and the harness.
type Model interface {
	// LatentRepresentation maps N×In inputs to N×H latents.
	LatentRepresentation(x *matrix.Dense) (*matrix.Dense, error)

	// Probabilities maps N×In inputs to N×K class probabilities.
	Probabilities(x *matrix.Dense) (*matrix.Dense, error)

	// LatentToPresoftmax maps N×H latents to N×K logits.
	LatentToPresoftmax(h *matrix.Dense) (*matrix.Dense, error)
}

// Sentinel errors.
var (
	ErrShape        = errors.New("model: input shape does not match the network")
	ErrInvalidArgs  = errors.New("model: invalid constructor arguments")
	ErrLabels       = errors.New("model: label out of range or count mismatch")
	ErrMissingParam = errors.New("model: missing parameter matrix")
)
