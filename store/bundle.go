// SPDX-License-Identifier: MIT

package store

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

const (
	metadataVersion = 1
	metadataFile    = "metadata.yaml"
	blobExt         = ".bin"
)

// Matrix names inside a state bundle.
const (
	matWeights      = "weights"
	matCoefficients = "coefficients"
	matCorpus       = "corpus_latents"
	matTest         = "test_latents"
	matExamples     = "examples"
)

// record is the YAML metadata of one bundle.
type record struct {
	Version  int                `yaml:"version"`
	Name     string             `yaml:"name"`
	Kind     string             `yaml:"kind,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Meta     map[string]string  `yaml:"meta,omitempty"`
	Matrices []blobRef          `yaml:"matrices"`
	SavedAt  time.Time          `yaml:"saved_at"`
}

type blobRef struct {
	Name     string `yaml:"name"`
	Rows     int    `yaml:"rows"`
	Cols     int    `yaml:"cols"`
	Checksum uint64 `yaml:"checksum"`
}

// bundle is the backend-neutral unit of persistence.
type bundle struct {
	rec   record
	blobs map[string][]byte
}

func newBundle(name, kind string, params map[string]float64, meta map[string]string, mats map[string]*matrix.Dense) bundle {
	b := bundle{
		rec: record{
			Version: metadataVersion,
			Name:    name,
			Kind:    kind,
			Params:  params,
			Meta:    meta,
			SavedAt: time.Now().UTC(),
		},
		blobs: make(map[string][]byte, len(mats)),
	}
	names := make([]string, 0, len(mats))
	for n, m := range mats {
		if m != nil {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		m := mats[n]
		data := encodeMatrix(m)
		b.blobs[n] = data
		b.rec.Matrices = append(b.rec.Matrices, blobRef{
			Name: n, Rows: m.Rows(), Cols: m.Cols(), Checksum: blobChecksum(data),
		})
	}

	return b
}

func stateBundle(key Key, st explain.State) bundle {
	return newBundle(key.String(), string(st.Kind), st.Params, st.Meta, map[string]*matrix.Dense{
		matWeights:      st.Weights,
		matCoefficients: st.Coefficients,
		matCorpus:       st.CorpusLatents,
		matTest:         st.TestLatents,
		matExamples:     st.Examples,
	})
}

// matrices decodes every blob and checks it against the metadata.
func (b bundle) matrices() (map[string]*matrix.Dense, error) {
	out := make(map[string]*matrix.Dense, len(b.rec.Matrices))
	for _, ref := range b.rec.Matrices {
		data, ok := b.blobs[ref.Name]
		if !ok {
			return nil, errors.Wrapf(ErrCorrupt, "%s: missing blob %q", b.rec.Name, ref.Name)
		}
		m, err := decodeMatrix(data)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: blob %q", b.rec.Name, ref.Name)
		}
		if m.Rows() != ref.Rows || m.Cols() != ref.Cols || blobChecksum(data) != ref.Checksum {
			return nil, errors.Wrapf(ErrCorrupt, "%s: blob %q disagrees with metadata", b.rec.Name, ref.Name)
		}
		out[ref.Name] = m
	}

	return out, nil
}

func (b bundle) state() (explain.State, error) {
	if b.rec.Kind == "" {
		return explain.State{}, errors.Wrapf(ErrNotFound, "%s is not an explainer", b.rec.Name)
	}
	kind, err := explain.ParseKind(b.rec.Kind)
	if err != nil {
		return explain.State{}, errors.Wrapf(ErrCorrupt, "%s: %v", b.rec.Name, err)
	}
	mats, err := b.matrices()
	if err != nil {
		return explain.State{}, err
	}
	st := explain.State{
		Kind:          kind,
		Weights:       mats[matWeights],
		Coefficients:  mats[matCoefficients],
		CorpusLatents: mats[matCorpus],
		TestLatents:   mats[matTest],
		Examples:      mats[matExamples],
		Params:        b.rec.Params,
		Meta:          b.rec.Meta,
	}
	if err = st.Validate(); err != nil {
		return explain.State{}, errors.Wrapf(ErrCorrupt, "%s: %v", b.rec.Name, err)
	}

	return st, nil
}

func marshalRecord(rec record) ([]byte, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "store: marshal metadata")
	}

	return data, nil
}

func unmarshalRecord(data []byte) (record, error) {
	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return record{}, errors.Wrapf(ErrCorrupt, "parse metadata: %v", err)
	}
	if rec.Version != metadataVersion {
		return record{}, errors.Wrapf(ErrCorrupt, "unsupported metadata version %d", rec.Version)
	}

	return rec, nil
}
