// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/rng"
)

// Training defaults.
const (
	DefaultTrainEpochs   = 10
	DefaultBatchSize     = 64
	DefaultTrainRate     = 0.01
	DefaultTrainMomentum = 0.5
	DefaultWeightDecay   = 0.01
)

// TrainConfig holds the SGD knobs. Zero fields take the defaults above,
// except WeightDecay and Momentum where zero is meaningful.
type TrainConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`
	WeightDecay  float64 `yaml:"weight_decay"`
	Seed         int64   `yaml:"seed"`
}

// DefaultTrainConfig returns the defaults as a config value.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       DefaultTrainEpochs,
		BatchSize:    DefaultBatchSize,
		LearningRate: DefaultTrainRate,
		Momentum:     DefaultTrainMomentum,
		WeightDecay:  DefaultWeightDecay,
	}
}

func (cfg TrainConfig) withDefaults() TrainConfig {
	if cfg.Epochs < 1 {
		cfg.Epochs = DefaultTrainEpochs
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if !(cfg.LearningRate > 0) {
		cfg.LearningRate = DefaultTrainRate
	}

	return cfg
}

// TrainReport summarises a training run. TestLoss and TestAccuracy are
// filled per epoch only when a holdout set is given.
type TrainReport struct {
	EpochLoss    []float64 // mean cross-entropy per epoch
	Accuracy     float64   // training accuracy after the last epoch
	TestLoss     []float64
	TestAccuracy []float64
}

// TrainOption configures a Train call beyond its TrainConfig.
type TrainOption func(*trainOptions)

type trainOptions struct {
	holdoutX      *matrix.Dense
	holdoutLabels []int
}

// WithHoldout evaluates loss and accuracy on (x, labels) after every epoch.
func WithHoldout(x *matrix.Dense, labels []int) TrainOption {
	return func(o *trainOptions) {
		o.holdoutX, o.holdoutLabels = x, labels
	}
}

// Train fits the softmax head on (x, labels) with mini-batch momentum SGD:
//
//	g = (P − Y)ᵀ·H / B + wd·W;   v ← μ·v − η·g;   W ← W + v
//
// Batches are drawn from a seeded shuffle every epoch.
// Errors: ErrShape, ErrLabels, ctx.Err().
func (c *Classifier) Train(ctx context.Context, x *matrix.Dense, labels []int, cfg TrainConfig, opts ...TrainOption) (TrainReport, error) {
	cfg = cfg.withDefaults()
	var o trainOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := c.checkLabelled("Train", x, labels); err != nil {
		return TrainReport{}, err
	}
	var holdout *matrix.Dense
	if o.holdoutX != nil {
		if err := c.checkLabelled("Train: holdout", o.holdoutX, o.holdoutLabels); err != nil {
			return TrainReport{}, err
		}
		var err error
		if holdout, err = c.LatentRepresentation(o.holdoutX); err != nil {
			return TrainReport{}, err
		}
	}

	h, err := c.LatentRepresentation(x)
	if err != nil {
		return TrainReport{}, err
	}
	nK := c.Classes()
	r := rng.New(cfg.Seed)

	nH := c.LatentDim()
	velW, _ := matrix.NewDense(nK, nH)
	velB := make([]float64, nK)
	gradW := make([]float64, nK*nH)
	gradB := make([]float64, nK)
	probs := make([]float64, nK)
	order := make([]int, x.Rows())
	for i := range order {
		order[i] = i
	}

	report := TrainReport{EpochLoss: make([]float64, 0, cfg.Epochs)}
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err = ctx.Err(); err != nil {
			return report, fmt.Errorf("Train: epoch %d: %w", epoch, err)
		}
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		for start := 0; start < len(order); start += cfg.BatchSize {
			batch := order[start:min(start+cfg.BatchSize, len(order))]
			clear(gradW)
			clear(gradB)
			for _, i := range batch {
				hi := h.RowView(i)
				c.logitsInto(hi, probs)
				softmaxInPlace(probs)
				epochLoss -= math.Log(math.Max(probs[labels[i]], 1e-300))
				probs[labels[i]] -= 1
				for k := 0; k < nK; k++ {
					gradB[k] += probs[k]
					g := gradW[k*nH : (k+1)*nH]
					for j, v := range hi {
						g[j] += probs[k] * v
					}
				}
			}
			inv := 1 / float64(len(batch))
			for k := 0; k < nK; k++ {
				wk, vk := c.head.RowView(k), velW.RowView(k)
				for j := range wk {
					g := gradW[k*nH+j]*inv + cfg.WeightDecay*wk[j]
					vk[j] = cfg.Momentum*vk[j] - cfg.LearningRate*g
					wk[j] += vk[j]
				}
				velB[k] = cfg.Momentum*velB[k] - cfg.LearningRate*gradB[k]*inv
				c.headBias[k] += velB[k]
			}
		}
		report.EpochLoss = append(report.EpochLoss, epochLoss/float64(len(order)))
		if holdout != nil {
			loss, acc := c.scoreLatents(holdout, o.holdoutLabels)
			report.TestLoss = append(report.TestLoss, loss)
			report.TestAccuracy = append(report.TestAccuracy, acc)
		}
	}
	_, report.Accuracy = c.scoreLatents(h, labels)

	return report, nil
}

// Evaluate returns the mean cross-entropy and the accuracy of the
// classifier on (x, labels).
// Errors: ErrShape, ErrLabels.
func (c *Classifier) Evaluate(x *matrix.Dense, labels []int) (loss, accuracy float64, err error) {
	if err = c.checkLabelled("Evaluate", x, labels); err != nil {
		return 0, 0, err
	}
	h, err := c.LatentRepresentation(x)
	if err != nil {
		return 0, 0, err
	}
	loss, accuracy = c.scoreLatents(h, labels)

	return loss, accuracy, nil
}

func (c *Classifier) checkLabelled(op string, x *matrix.Dense, labels []int) error {
	if x == nil || x.Cols() != c.InputDim() {
		return fmt.Errorf("%s: %w", op, ErrShape)
	}
	if len(labels) != x.Rows() {
		return fmt.Errorf("%s: %d labels for %d rows: %w", op, len(labels), x.Rows(), ErrLabels)
	}
	for i, y := range labels {
		if y < 0 || y >= c.Classes() {
			return fmt.Errorf("%s: label %d at row %d: %w", op, y, i, ErrLabels)
		}
	}

	return nil
}

// scoreLatents computes mean cross-entropy and accuracy from latents.
func (c *Classifier) scoreLatents(h *matrix.Dense, labels []int) (loss, accuracy float64) {
	probs := make([]float64, c.Classes())
	correct := 0
	for i, y := range labels {
		c.logitsInto(h.RowView(i), probs)
		if floats.MaxIdx(probs) == y {
			correct++
		}
		softmaxInPlace(probs)
		loss -= math.Log(math.Max(probs[y], 1e-300))
	}
	n := float64(len(labels))

	return loss / n, float64(correct) / n
}

// logitsInto writes W·h + c into dst.
func (c *Classifier) logitsInto(h, dst []float64) {
	for k := range dst {
		dst[k] = floats.Dot(c.head.RowView(k), h) + c.headBias[k]
	}
}
