// SPDX-License-Identifier: MIT

package experiment

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/corpex/model"
	"github.com/katalvlaran/corpex/representer"
	"github.com/katalvlaran/corpex/simplex"
	"github.com/katalvlaran/corpex/store"
)

// ErrInvalidConfig reports a configuration that cannot drive an experiment.
var ErrInvalidConfig = errors.New("experiment: invalid config")

// Default configuration values.
const (
	DefaultSeed        int64 = 42
	DefaultInputDim          = 8
	DefaultClasses           = 3
	DefaultTrainSize         = 600
	DefaultCorpusSize        = 200
	DefaultTestSize          = 50
	DefaultOutlierSize       = 50
	DefaultHidden            = 16
	DefaultSimplexEpochs     = 2000
	DefaultNeighbors         = 5
	DefaultStoreDir          = "results"
)

// Config drives both experiments. It is loaded from YAML; unset fields keep
// the values of DefaultConfig.
type Config struct {
	Seed      int64             `yaml:"seed"`
	CV        int               `yaml:"cv"`
	Data      DataConfig        `yaml:"data"`
	Model     ModelConfig       `yaml:"model"`
	Simplex   SimplexConfig     `yaml:"simplex"`
	Neighbors int               `yaml:"neighbors"` // k for the outlier experiment's nearest-neighbor baselines
	NKeepList []int             `yaml:"n_keep_list"`
	Repr      RepresenterConfig `yaml:"representer"`
	Store     StoreConfig       `yaml:"store"`
}

// DataConfig sizes the synthetic mixture and its draws.
type DataConfig struct {
	InputDim    int     `yaml:"input_dim"`
	Classes     int     `yaml:"classes"`
	Separation  float64 `yaml:"separation"`
	Spread      float64 `yaml:"spread"`
	TrainSize   int     `yaml:"train_size"`
	CorpusSize  int     `yaml:"corpus_size"`
	TestSize    int     `yaml:"test_size"`
	OutlierSize int     `yaml:"outlier_size"`
}

// ModelConfig shapes and trains the black-box classifier.
type ModelConfig struct {
	Hidden int               `yaml:"hidden"`
	Train  model.TrainConfig `yaml:"train"`
}

// SimplexConfig holds the weight optimizer knobs.
type SimplexConfig struct {
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Momentum     float64 `yaml:"momentum"`
	RegInit      float64 `yaml:"reg_init"`
	RegFinal     float64 `yaml:"reg_final"`
	Penalty      string  `yaml:"penalty"`
	Workers      int     `yaml:"workers"`
}

// RepresenterConfig holds the representer baseline knobs.
type RepresenterConfig struct {
	Regularization float64 `yaml:"regularization"`
	Method         string  `yaml:"method"` // "kernel_ridge" or "representer"
}

// StoreConfig says where fitted explainers go. An empty Dir disables persistence.
type StoreConfig struct {
	Dir       string `yaml:"dir"`
	Backend   string `yaml:"backend"`
	CacheSize int    `yaml:"cache_size"`
}

// DefaultConfig returns a small configuration that runs in seconds.
func DefaultConfig() Config {
	return Config{
		Seed: DefaultSeed,
		Data: DataConfig{
			InputDim:    DefaultInputDim,
			Classes:     DefaultClasses,
			Separation:  4,
			Spread:      1,
			TrainSize:   DefaultTrainSize,
			CorpusSize:  DefaultCorpusSize,
			TestSize:    DefaultTestSize,
			OutlierSize: DefaultOutlierSize,
		},
		Model: ModelConfig{Hidden: DefaultHidden, Train: model.DefaultTrainConfig()},
		Simplex: SimplexConfig{
			Epochs:       DefaultSimplexEpochs,
			LearningRate: simplex.DefaultLearningRate,
			Momentum:     simplex.DefaultMomentum,
			RegInit:      simplex.DefaultRegInit,
			RegFinal:     simplex.DefaultRegFinal,
			Penalty:      simplex.TailMass{}.Name(),
		},
		Neighbors: DefaultNeighbors,
		NKeepList: []int{2, 5, 10, 20},
		Repr: RepresenterConfig{
			Regularization: representer.DefaultRegularization,
			Method:         representer.DefaultMethod.String(),
		},
		Store: StoreConfig{Dir: DefaultStoreDir, Backend: store.BackendFile, CacheSize: store.DefaultCacheSize},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks sizes and names before any work starts.
func (c Config) Validate() error {
	d := c.Data
	switch {
	case d.InputDim < 1, d.Classes < 2:
		return fmt.Errorf("%w: input_dim >= 1 and classes >= 2 required", ErrInvalidConfig)
	case d.TrainSize < 1, d.CorpusSize < 1, d.TestSize < 1:
		return fmt.Errorf("%w: train, corpus and test sizes must be >= 1", ErrInvalidConfig)
	case d.OutlierSize < 0:
		return fmt.Errorf("%w: outlier_size must be >= 0", ErrInvalidConfig)
	case !(d.Separation > 0), !(d.Spread > 0):
		return fmt.Errorf("%w: separation and spread must be > 0", ErrInvalidConfig)
	case c.Model.Hidden < 1:
		return fmt.Errorf("%w: model.hidden must be >= 1", ErrInvalidConfig)
	case c.Simplex.Epochs < 1, !(c.Simplex.LearningRate > 0):
		return fmt.Errorf("%w: simplex epochs and learning_rate must be positive", ErrInvalidConfig)
	case c.Simplex.Momentum < 0, c.Simplex.Momentum >= 1:
		return fmt.Errorf("%w: simplex.momentum must be in [0, 1)", ErrInvalidConfig)
	case !(c.Simplex.RegInit > 0), !(c.Simplex.RegFinal > 0):
		return fmt.Errorf("%w: simplex reg_init and reg_final must be > 0", ErrInvalidConfig)
	case c.Neighbors < 1 || c.Neighbors > d.CorpusSize:
		return fmt.Errorf("%w: neighbors must be in [1, corpus_size]", ErrInvalidConfig)
	case c.Repr.Regularization < 0:
		return fmt.Errorf("%w: representer.regularization must be >= 0", ErrInvalidConfig)
	case c.CV < 0:
		return fmt.Errorf("%w: cv must be >= 0", ErrInvalidConfig)
	}
	if _, ok := simplex.PenaltyByName(c.Simplex.Penalty); !ok {
		return fmt.Errorf("%w: unknown penalty %q", ErrInvalidConfig, c.Simplex.Penalty)
	}
	if _, err := c.method(); err != nil {
		return err
	}
	for _, n := range c.NKeepList {
		if n < 1 || n > d.CorpusSize {
			return fmt.Errorf("%w: n_keep %d outside [1, %d]", ErrInvalidConfig, n, d.CorpusSize)
		}
	}
	switch c.Store.Backend {
	case "", store.BackendFile, store.BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	return nil
}

func (c Config) method() (representer.Method, error) {
	switch c.Repr.Method {
	case "", representer.KernelRidge.String():
		return representer.KernelRidge, nil
	case representer.Representer.String():
		return representer.Representer, nil
	}

	return 0, fmt.Errorf("%w: unknown representer method %q", ErrInvalidConfig, c.Repr.Method)
}
