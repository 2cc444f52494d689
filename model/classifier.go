// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/rng"
)

// Parameter names used by Matrices / FromMatrices.
const (
	ParamEncoder     = "encoder"      // In×H
	ParamEncoderBias = "encoder_bias" // 1×H
	ParamHead        = "head"         // K×H
	ParamHeadBias    = "head_bias"    // 1×K
)

// Classifier is a random-feature encoder with a trainable softmax head.
type Classifier struct {
	encoder  *matrix.Dense // In×H
	encBias  []float64     // H
	head     *matrix.Dense // K×H
	headBias []float64     // K
}

var _ Model = (*Classifier)(nil)

// NewClassifier draws the encoder from N(0, 1/in) with seed and starts the
// head at zero. Seed 0 maps to a fixed non-zero seed.
//
// Errors: ErrInvalidArgs for non-positive sizes.
func NewClassifier(in, hidden, classes int, seed int64) (*Classifier, error) {
	if in < 1 || hidden < 1 || classes < 2 {
		return nil, fmt.Errorf("NewClassifier(%d, %d, %d): %w", in, hidden, classes, ErrInvalidArgs)
	}
	r := rng.New(seed)

	enc, _ := matrix.NewDense(in, hidden)
	scale := 1 / math.Sqrt(float64(in))
	for i := 0; i < in; i++ {
		row := enc.RowView(i)
		for j := range row {
			row[j] = r.NormFloat64() * scale
		}
	}
	bias := make([]float64, hidden)
	for j := range bias {
		bias[j] = r.NormFloat64() * 0.1
	}
	head, _ := matrix.NewDense(classes, hidden)

	return &Classifier{
		encoder:  enc,
		encBias:  bias,
		head:     head,
		headBias: make([]float64, classes),
	}, nil
}

// InputDim, LatentDim and Classes report the network sizes.
func (c *Classifier) InputDim() int  { return c.encoder.Rows() }
func (c *Classifier) LatentDim() int { return c.encoder.Cols() }
func (c *Classifier) Classes() int   { return c.head.Rows() }

// LatentRepresentation returns tanh(x·A + b).
func (c *Classifier) LatentRepresentation(x *matrix.Dense) (*matrix.Dense, error) {
	if x == nil || x.Cols() != c.InputDim() {
		return nil, fmt.Errorf("LatentRepresentation: %w", ErrShape)
	}
	h, err := matrix.Mul(x, c.encoder)
	if err != nil {
		return nil, fmt.Errorf("LatentRepresentation: %w", err)
	}
	for i := 0; i < h.Rows(); i++ {
		row := h.RowView(i)
		for j := range row {
			row[j] = math.Tanh(row[j] + c.encBias[j])
		}
	}

	return h, nil
}

// LatentToPresoftmax returns h·Wᵀ + c.
func (c *Classifier) LatentToPresoftmax(h *matrix.Dense) (*matrix.Dense, error) {
	if h == nil || h.Cols() != c.LatentDim() {
		return nil, fmt.Errorf("LatentToPresoftmax: %w", ErrShape)
	}
	z, err := matrix.MulTransB(h, c.head)
	if err != nil {
		return nil, fmt.Errorf("LatentToPresoftmax: %w", err)
	}
	for i := 0; i < z.Rows(); i++ {
		floats.Add(z.RowView(i), c.headBias)
	}

	return z, nil
}

// Probabilities returns softmax(LatentToPresoftmax(LatentRepresentation(x))).
func (c *Classifier) Probabilities(x *matrix.Dense) (*matrix.Dense, error) {
	h, err := c.LatentRepresentation(x)
	if err != nil {
		return nil, err
	}
	z, err := c.LatentToPresoftmax(h)
	if err != nil {
		return nil, err
	}
	for i := 0; i < z.Rows(); i++ {
		softmaxInPlace(z.RowView(i))
	}

	return z, nil
}

// Predict returns the arg-max class of every input row.
func (c *Classifier) Predict(x *matrix.Dense) ([]int, error) {
	p, err := c.Probabilities(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, p.Rows())
	for i := range out {
		out[i] = floats.MaxIdx(p.RowView(i))
	}

	return out, nil
}

// softmaxInPlace replaces logits by probabilities using log-sum-exp.
func softmaxInPlace(z []float64) {
	lse := floats.LogSumExp(z)
	for k := range z {
		z[k] = math.Exp(z[k] - lse)
	}
}

// Matrices exports copies of every parameter.
func (c *Classifier) Matrices() map[string]*matrix.Dense {
	eb, _ := matrix.NewFromData(1, len(c.encBias), c.encBias)
	hb, _ := matrix.NewFromData(1, len(c.headBias), c.headBias)

	return map[string]*matrix.Dense{
		ParamEncoder:     c.encoder.Copy(),
		ParamEncoderBias: eb,
		ParamHead:        c.head.Copy(),
		ParamHeadBias:    hb,
	}
}

// FromMatrices rebuilds a Classifier from Matrices output.
// Errors: ErrMissingParam, ErrShape.
func FromMatrices(params map[string]*matrix.Dense) (*Classifier, error) {
	for _, name := range []string{ParamEncoder, ParamEncoderBias, ParamHead, ParamHeadBias} {
		if params[name] == nil {
			return nil, fmt.Errorf("FromMatrices: %q: %w", name, ErrMissingParam)
		}
	}
	enc, head := params[ParamEncoder], params[ParamHead]
	eb, hb := params[ParamEncoderBias], params[ParamHeadBias]
	if head.Cols() != enc.Cols() || eb.Rows() != 1 || eb.Cols() != enc.Cols() || hb.Rows() != 1 || hb.Cols() != head.Rows() {
		return nil, fmt.Errorf("FromMatrices: %w", ErrShape)
	}

	return &Classifier{
		encoder:  enc.Copy(),
		encBias:  eb.RawData(),
		head:     head.Copy(),
		headBias: hb.RawData(),
	}, nil
}
