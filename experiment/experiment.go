// SPDX-License-Identifier: MIT

package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/corpex/dataset"
	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/metrics"
	"github.com/katalvlaran/corpex/model"
	"github.com/katalvlaran/corpex/nearest"
	"github.com/katalvlaran/corpex/representer"
	"github.com/katalvlaran/corpex/rng"
	"github.com/katalvlaran/corpex/schedule"
	"github.com/katalvlaran/corpex/simplex"
	"github.com/katalvlaran/corpex/store"
)

// Experiment names accepted by Run.
const (
	NameQuality = "approximation_quality"
	NameOutlier = "outlier"
)

// Random sub-streams derived from Seed+CV. Each draw has its own stream so
// changing one size does not reshuffle the others.
const (
	streamCentres uint64 = iota + 1
	streamTrain
	streamModel
	streamSGD
	streamCorpus
	streamTest
	streamOutliers
	streamExplainer
	streamBaseline
	streamHoldout
)

// Score is one explainer's approximation quality on the test set.
type Score struct {
	Explainer explain.Kind `json:"explainer"`
	NKeep     int          `json:"n_keep,omitempty"`
	LatentR2  *float64     `json:"latent_r2,omitempty"` // nil for the representer
	OutputR2  float64      `json:"output_r2"`
}

// QualityReport is the result of ApproximationQuality.
type QualityReport struct {
	RunID             string        `json:"run_id"`
	CV                int           `json:"cv"`
	ModelAccuracy     float64       `json:"model_accuracy"`
	ModelTestAccuracy float64       `json:"model_test_accuracy"`
	Scores            []Score       `json:"scores"`
	Elapsed           time.Duration `json:"elapsed"`
}

// OutlierReport is the result of OutlierDetection. Curves maps a detector
// name to its OutlierCurve; "random" and "ideal" are the reference curves.
// Accuracy maps a detector (and "random") to the model's accuracy on the
// test examples left after removing its n most suspicious ones.
type OutlierReport struct {
	RunID    string               `json:"run_id"`
	CV       int                  `json:"cv"`
	Test     int                  `json:"test"`
	Outliers int                  `json:"outliers"`
	Curves   map[string][]int     `json:"curves"`
	Areas    map[string]int       `json:"areas"`
	Accuracy map[string][]float64 `json:"accuracy"`
	Elapsed  time.Duration        `json:"elapsed"`
}

// Runner executes experiments for one Config.
type Runner struct {
	Config Config
	Logger *slog.Logger  // Optional, uses slog.Default() if nil
	Store  store.Backend // Optional; opened from Config.Store when nil
}

// ApproximationQuality runs the approximation-quality experiment with a default Runner.
func ApproximationQuality(ctx context.Context, cfg Config) (*QualityReport, error) {
	return (&Runner{Config: cfg}).ApproximationQuality(ctx)
}

// OutlierDetection runs the outlier experiment with a default Runner.
func OutlierDetection(ctx context.Context, cfg Config) (*OutlierReport, error) {
	return (&Runner{Config: cfg}).OutlierDetection(ctx)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}

// session is the state shared by one experiment run: trained model, corpus
// and the store explainers are written to.
type session struct {
	runID  string
	seed   int64
	cfg    Config
	log    *slog.Logger
	gen    *dataset.Gaussian
	clf     *model.Classifier
	acc     float64
	testAcc float64 // on the held-out draw
	corpus  dataset.Batch
	latent  *matrix.Dense     // corpus latents
	states  store.Store       // nil when persistence is off
	mats    store.MatrixStore // nil when persistence is off
	closer  func() error
}

func (s *session) close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer()
}

// finish closes the session and keeps the close error when *err is nil.
func (s *session) finish(err *error) {
	if cerr := s.close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close store: %w", cerr)
	}
}

// open validates the config, opens the store, trains the model and embeds
// the corpus. weightDecay overrides the model's weight decay when non-nil.
func (r *Runner) open(ctx context.Context, name string, weightDecay *float64) (*session, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &session{
		runID: uuid.NewString(),
		seed:  cfg.Seed + int64(cfg.CV),
		cfg:   cfg,
	}
	s.log = r.logger().With("run", s.runID, "experiment", name, "cv", cfg.CV)

	backend := r.Store
	if backend == nil && cfg.Store.Dir != "" {
		var err error
		backend, err = store.Open(cfg.Store.Backend, filepath.Join(cfg.Store.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.closer = backend.Close
	}
	if backend != nil {
		cached, err := store.NewCached(backend, cfg.Store.CacheSize)
		if err != nil {
			_ = s.close()
			return nil, err
		}
		s.states, s.mats = cached, backend
	}

	if err := s.prepare(ctx, weightDecay); err != nil {
		_ = s.close()
		return nil, err
	}

	return s, nil
}

func (s *session) prepare(ctx context.Context, weightDecay *float64) error {
	d := s.cfg.Data
	var err error
	s.gen, err = dataset.NewGaussian(d.InputDim, d.Classes, d.Separation, d.Spread, rng.Derive(s.seed, streamCentres))
	if err != nil {
		return err
	}
	train, err := s.gen.Sample(d.TrainSize, rng.Derive(s.seed, streamTrain))
	if err != nil {
		return err
	}
	s.clf, err = model.NewClassifier(d.InputDim, s.cfg.Model.Hidden, d.Classes, rng.Derive(s.seed, streamModel))
	if err != nil {
		return err
	}
	tc := s.cfg.Model.Train
	if tc.Seed == 0 {
		tc.Seed = rng.Derive(s.seed, streamSGD)
	}
	if weightDecay != nil {
		tc.WeightDecay = *weightDecay
	}
	holdout, err := s.gen.Sample(d.TestSize, rng.Derive(s.seed, streamHoldout))
	if err != nil {
		return err
	}
	rep, err := s.clf.Train(ctx, train.X, train.Labels, tc, model.WithHoldout(holdout.X, holdout.Labels))
	if err != nil {
		return fmt.Errorf("train model: %w", err)
	}
	for e := range rep.EpochLoss {
		s.log.Debug("model epoch", "epoch", e+1,
			"loss", rep.EpochLoss[e], "test_loss", rep.TestLoss[e], "test_accuracy", rep.TestAccuracy[e])
	}
	last := len(rep.EpochLoss) - 1
	s.acc, s.testAcc = rep.Accuracy, rep.TestAccuracy[last]
	s.log.Info("model trained",
		"epochs", len(rep.EpochLoss),
		"loss", rep.EpochLoss[last],
		"accuracy", rep.Accuracy,
		"test_loss", rep.TestLoss[last],
		"test_accuracy", s.testAcc)
	if err = s.saveMatrices(ctx, "model", s.clf.Matrices()); err != nil {
		return err
	}

	s.corpus, err = s.gen.Sample(d.CorpusSize, rng.Derive(s.seed, streamCorpus))
	if err != nil {
		return err
	}
	if s.latent, err = s.clf.LatentRepresentation(s.corpus.X); err != nil {
		return err
	}
	probas, err := s.clf.Probabilities(s.corpus.X)
	if err != nil {
		return err
	}
	classes, err := labelColumn(s.corpus.Labels)
	if err != nil {
		return err
	}

	return s.saveMatrices(ctx, "corpus_data", map[string]*matrix.Dense{
		"latents":       s.latent,
		"probabilities": probas,
		"true_classes":  classes,
	})
}

// saveMatrices writes a bundle named <prefix>_cv<cv> when a store is configured.
func (s *session) saveMatrices(ctx context.Context, prefix string, mats map[string]*matrix.Dense) error {
	if s.mats == nil {
		return nil
	}
	name := fmt.Sprintf("%s_cv%d", prefix, s.cfg.CV)
	if err := s.mats.SaveMatrices(ctx, name, mats); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	return nil
}

// saveTestData stores the test latents and their targets (−1 for outliers).
func (s *session) saveTestData(ctx context.Context, latent *matrix.Dense, labels []int) error {
	targets, err := labelColumn(labels)
	if err != nil {
		return err
	}

	return s.saveMatrices(ctx, "test_data", map[string]*matrix.Dense{
		"latents": latent,
		"targets": targets,
	})
}

// labelColumn stores class indices as an N×1 matrix.
func labelColumn(labels []int) (*matrix.Dense, error) {
	data := make([]float64, len(labels))
	for i, y := range labels {
		data[i] = float64(y)
	}

	return matrix.NewFromData(len(labels), 1, data)
}

// persist saves e's state under (kind, cv, keep) when a store is configured.
func (s *session) persist(ctx context.Context, e explain.Explainer, keep int) error {
	if s.states == nil {
		return nil
	}
	st, err := e.State()
	if err != nil {
		return err
	}
	key := store.Key{Kind: e.Kind(), CV: s.cfg.CV, Keep: keep}
	if err = s.states.Save(ctx, key, st); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	return nil
}

func (s *session) newSimplex(nKeep int, extra ...simplex.Option) (*simplex.Explainer, error) {
	c := s.cfg.Simplex
	p, _ := simplex.PenaltyByName(c.Penalty)
	opts := []simplex.Option{
		simplex.WithKeep(nKeep),
		simplex.WithEpochs(c.Epochs),
		simplex.WithLearningRate(c.LearningRate),
		simplex.WithMomentum(c.Momentum),
		simplex.WithRegularization(c.RegInit, c.RegFinal),
		simplex.WithPenalty(p),
		simplex.WithSeed(rng.Derive(s.seed, streamExplainer)),
		simplex.WithWorkers(c.Workers),
		simplex.WithCorpusExamples(s.corpus.X),
	}

	return simplex.New(s.latent, append(opts, extra...)...)
}

func (s *session) newNearest(k int, w nearest.Weighting) (*nearest.Explainer, error) {
	return nearest.New(s.latent,
		nearest.WithKeep(k),
		nearest.WithWeighting(w),
		nearest.WithWorkers(s.cfg.Simplex.Workers),
		nearest.WithCorpusExamples(s.corpus.X))
}

// ApproximationQuality trains the model, then for every n_keep in NKeepList
// fits simplex, nn_uniform and nn_dist on a fresh test draw and scores the
// latent and output approximations with R². The representer is fitted once
// on the whole corpus and scored on outputs only.
func (r *Runner) ApproximationQuality(ctx context.Context) (_ *QualityReport, err error) {
	start := time.Now()
	s, err := r.open(ctx, NameQuality, nil)
	if err != nil {
		return nil, err
	}
	defer s.finish(&err)

	test, err := s.gen.Sample(s.cfg.Data.TestSize, rng.Derive(s.seed, streamTest))
	if err != nil {
		return nil, err
	}
	testLatent, err := s.clf.LatentRepresentation(test.X)
	if err != nil {
		return nil, err
	}
	testOutput, err := s.clf.LatentToPresoftmax(testLatent)
	if err != nil {
		return nil, err
	}
	if err = s.saveTestData(ctx, testLatent, test.Labels); err != nil {
		return nil, err
	}

	rep := &QualityReport{RunID: s.runID, CV: s.cfg.CV, ModelAccuracy: s.acc, ModelTestAccuracy: s.testAcc}
	for i, nKeep := range s.cfg.NKeepList {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		s.log.Info("fitting explainers", "round", i+1, "of", len(s.cfg.NKeepList), "n_keep", nKeep)

		sx, err := s.newSimplex(nKeep)
		if err != nil {
			return nil, err
		}
		if err = sx.FitContext(ctx, testLatent); err != nil {
			return nil, fmt.Errorf("simplex n_keep=%d: %w", nKeep, err)
		}
		uni, err := s.newNearest(nKeep, nearest.Uniform)
		if err != nil {
			return nil, err
		}
		dist, err := s.newNearest(nKeep, nearest.Distance)
		if err != nil {
			return nil, err
		}
		for _, e := range []explain.LatentApproximator{sx, uni, dist} {
			if e != sx {
				if err = e.Fit(testLatent); err != nil {
					return nil, fmt.Errorf("%s n_keep=%d: %w", e.Kind(), nKeep, err)
				}
			}
			score, err := s.score(e, nKeep, testLatent, testOutput)
			if err != nil {
				return nil, err
			}
			if err = s.persist(ctx, e, nKeep); err != nil {
				return nil, err
			}
			rep.Scores = append(rep.Scores, score)
			s.log.Info("explainer scored",
				"explainer", score.Explainer, "n_keep", nKeep,
				"latent_r2", *score.LatentR2, "output_r2", score.OutputR2)
		}
	}

	score, err := s.fitRepresenter(ctx, testLatent, testOutput)
	if err != nil {
		return nil, err
	}
	rep.Scores = append(rep.Scores, score)
	s.log.Info("explainer scored", "explainer", score.Explainer, "output_r2", score.OutputR2)

	rep.Elapsed = time.Since(start)

	return rep, nil
}

func (s *session) score(e explain.LatentApproximator, nKeep int, latent, output *matrix.Dense) (Score, error) {
	approx, err := e.LatentApprox()
	if err != nil {
		return Score{}, err
	}
	latentR2, err := metrics.R2(latent, approx)
	if err != nil {
		return Score{}, err
	}
	out, err := s.clf.LatentToPresoftmax(approx)
	if err != nil {
		return Score{}, err
	}
	outputR2, err := metrics.R2(output, out)
	if err != nil {
		return Score{}, err
	}

	return Score{Explainer: e.Kind(), NKeep: nKeep, LatentR2: &latentR2, OutputR2: outputR2}, nil
}

func (s *session) fitRepresenter(ctx context.Context, latent, output *matrix.Dense) (Score, error) {
	probas, err := s.clf.Probabilities(s.corpus.X)
	if err != nil {
		return Score{}, err
	}
	onehot, err := dataset.OneHot(s.corpus.Labels, s.cfg.Data.Classes)
	if err != nil {
		return Score{}, err
	}
	method, _ := s.cfg.method()
	e, err := representer.New(s.latent, probas, onehot,
		representer.WithRegularization(s.cfg.Repr.Regularization),
		representer.WithMethod(method))
	if err != nil {
		return Score{}, err
	}
	if err = e.Fit(latent); err != nil {
		return Score{}, fmt.Errorf("representer: %w", err)
	}
	approx, err := e.OutputApprox()
	if err != nil {
		return Score{}, err
	}
	r2, err := metrics.R2(output, approx)
	if err != nil {
		return Score{}, err
	}
	if err = s.persist(ctx, e, 0); err != nil {
		return Score{}, err
	}

	return Score{Explainer: e.Kind(), OutputR2: r2}, nil
}

// OutlierDetection mixes in-distribution test examples with outliers, fits
// an unregularised simplex over the whole corpus plus the two nearest
// neighbor baselines, and ranks test examples by latent residual. The model
// is trained without weight decay.
func (r *Runner) OutlierDetection(ctx context.Context) (_ *OutlierReport, err error) {
	start := time.Now()
	if r.Config.Data.OutlierSize < 1 {
		return nil, fmt.Errorf("%w: outlier_size must be >= 1", ErrInvalidConfig)
	}
	noDecay := 0.0
	s, err := r.open(ctx, NameOutlier, &noDecay)
	if err != nil {
		return nil, err
	}
	defer s.finish(&err)

	d := s.cfg.Data
	inDist, err := s.gen.Sample(d.TestSize, rng.Derive(s.seed, streamTest))
	if err != nil {
		return nil, err
	}
	out, err := s.gen.Outliers(d.OutlierSize, rng.Derive(s.seed, streamOutliers))
	if err != nil {
		return nil, err
	}
	test, err := dataset.Concat(inDist, out)
	if err != nil {
		return nil, err
	}
	isOutlier := make([]bool, len(test.Labels))
	for i, y := range test.Labels {
		isOutlier[i] = y < 0
	}
	testLatent, err := s.clf.LatentRepresentation(test.X)
	if err != nil {
		return nil, err
	}
	if err = s.saveTestData(ctx, testLatent, test.Labels); err != nil {
		return nil, err
	}
	pred, err := s.clf.Predict(test.X)
	if err != nil {
		return nil, err
	}

	// A zero regularization schedule: with n_keep = C the sparsity penalty is moot.
	flat, err := schedule.NewConstant(0, s.cfg.Simplex.Epochs)
	if err != nil {
		return nil, err
	}
	sx, err := s.newSimplex(d.CorpusSize, simplex.WithSchedule(flat))
	if err != nil {
		return nil, err
	}
	if err = sx.FitContext(ctx, testLatent); err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}
	uni, err := s.newNearest(s.cfg.Neighbors, nearest.Uniform)
	if err != nil {
		return nil, err
	}
	dist, err := s.newNearest(s.cfg.Neighbors, nearest.Distance)
	if err != nil {
		return nil, err
	}

	rep := &OutlierReport{
		RunID:    s.runID,
		CV:       s.cfg.CV,
		Test:     len(isOutlier),
		Outliers: d.OutlierSize,
		Curves:   make(map[string][]int, 5),
		Areas:    make(map[string]int, 5),
		Accuracy: make(map[string][]float64, 4),
	}
	for _, e := range []explain.LatentApproximator{sx, uni, dist} {
		if e != sx {
			if err = e.Fit(testLatent); err != nil {
				return nil, fmt.Errorf("%s: %w", e.Kind(), err)
			}
		}
		approx, err := e.LatentApprox()
		if err != nil {
			return nil, err
		}
		res, err := metrics.Residuals(testLatent, approx)
		if err != nil {
			return nil, err
		}
		order := metrics.Ranking(res)
		curve, err := metrics.CurveFromOrder(order, isOutlier)
		if err != nil {
			return nil, err
		}
		acc, err := metrics.RemainingAccuracy(order, pred, test.Labels)
		if err != nil {
			return nil, err
		}
		keep := s.cfg.Neighbors
		if e == sx {
			keep = d.CorpusSize
		}
		if err = s.persist(ctx, e, keep); err != nil {
			return nil, err
		}
		rep.Curves[string(e.Kind())] = curve
		rep.Accuracy[string(e.Kind())] = acc
	}
	random := rng.New(rng.Derive(s.seed, streamBaseline)).Perm(len(isOutlier))
	if rep.Curves["random"], err = metrics.CurveFromOrder(random, isOutlier); err != nil {
		return nil, err
	}
	if rep.Accuracy["random"], err = metrics.RemainingAccuracy(random, pred, test.Labels); err != nil {
		return nil, err
	}
	rep.Curves["ideal"] = metrics.IdealCurve(len(isOutlier), d.OutlierSize)
	for name, c := range rep.Curves {
		rep.Areas[name] = metrics.CurveArea(c)
		s.log.Info("detector scored", "detector", name, "area", rep.Areas[name])
	}
	rep.Elapsed = time.Since(start)

	return rep, nil
}

// Run dispatches on the experiment name and returns the report.
func (r *Runner) Run(ctx context.Context, name string) (any, error) {
	switch name {
	case NameQuality:
		return r.ApproximationQuality(ctx)
	case NameOutlier:
		return r.OutlierDetection(ctx)
	}

	return nil, fmt.Errorf("%w: unknown experiment %q", ErrInvalidConfig, name)
}
