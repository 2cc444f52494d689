// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

// FileStore keeps one directory per bundle under a root directory.
// Writes go to a temporary sibling directory that is renamed into place,
// so a reader never sees a half-written bundle.
type FileStore struct {
	root string
}

var (
	_ Store       = (*FileStore)(nil)
	_ MatrixStore = (*FileStore)(nil)
)

// NewFileStore creates root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "store: create %s", root)
	}

	return &FileStore{root: root}, nil
}

// Close is a no-op; files are closed after every operation.
func (s *FileStore) Close() error { return nil }

// Root returns the directory the store writes to.
func (s *FileStore) Root() string { return s.root }

// Save writes st under key, replacing any previous bundle.
func (s *FileStore) Save(ctx context.Context, key Key, st explain.State) error {
	if err := st.Validate(); err != nil {
		return errors.Wrapf(err, "store: save %s", key)
	}

	return s.write(ctx, stateBundle(key, st))
}

// Load reads the state saved under key.
func (s *FileStore) Load(ctx context.Context, key Key) (explain.State, error) {
	b, err := s.read(ctx, key.String())
	if err != nil {
		return explain.State{}, err
	}
	st, err := b.state()
	if err != nil {
		return explain.State{}, errors.Wrapf(err, "store: load %s", key)
	}

	return st, nil
}

// Delete removes the bundle for key. Missing keys report ErrNotFound.
func (s *FileStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Join(s.root, key.String())
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(ErrNotFound, "store: delete %s", key)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "store: delete %s", key)
	}

	return nil
}

// List returns every explainer key in the store, sorted by name.
// Matrix bundles and unreadable directories are skipped.
func (s *FileStore) List(ctx context.Context) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrapf(err, "store: list %s", s.root)
	}
	var keys []Key
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, e.Name(), metadataFile))
		if err != nil {
			continue
		}
		rec, err := unmarshalRecord(data)
		if err != nil || rec.Kind == "" {
			continue
		}
		if k, err := ParseKey(e.Name()); err == nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	return keys, nil
}

// SaveMatrices writes a named bundle of matrices.
func (s *FileStore) SaveMatrices(ctx context.Context, name string, mats map[string]*matrix.Dense) error {
	if err := validName(name); err != nil {
		return err
	}

	return s.write(ctx, newBundle(name, "", nil, nil, mats))
}

// LoadMatrices reads a bundle written by SaveMatrices (or any bundle).
func (s *FileStore) LoadMatrices(ctx context.Context, name string) (map[string]*matrix.Dense, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	b, err := s.read(ctx, name)
	if err != nil {
		return nil, err
	}

	return b.matrices()
}

func (s *FileStore) write(ctx context.Context, b bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	final := filepath.Join(s.root, b.rec.Name)
	tmp := filepath.Join(s.root, ".tmp-"+uuid.NewString())
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return errors.Wrapf(err, "store: create %s", tmp)
	}
	defer os.RemoveAll(tmp)

	for name, data := range b.blobs {
		path := filepath.Join(tmp, name+blobExt)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrapf(err, "store: write %s", path)
		}
	}
	meta, err := marshalRecord(b.rec)
	if err != nil {
		return err
	}
	if err = os.WriteFile(filepath.Join(tmp, metadataFile), meta, 0o644); err != nil {
		return errors.Wrapf(err, "store: write metadata for %s", b.rec.Name)
	}

	if err = os.RemoveAll(final); err != nil {
		return errors.Wrapf(err, "store: replace %s", final)
	}
	if err = os.Rename(tmp, final); err != nil {
		return errors.Wrapf(err, "store: rename into %s", final)
	}

	return nil
}

func (s *FileStore) read(ctx context.Context, name string) (bundle, error) {
	if err := ctx.Err(); err != nil {
		return bundle{}, err
	}
	dir := filepath.Join(s.root, name)
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return bundle{}, errors.Wrapf(ErrNotFound, "store: %s", name)
	}
	if err != nil {
		return bundle{}, errors.Wrapf(err, "store: read metadata for %s", name)
	}
	rec, err := unmarshalRecord(data)
	if err != nil {
		return bundle{}, errors.Wrapf(err, "store: %s", name)
	}

	b := bundle{rec: rec, blobs: make(map[string][]byte, len(rec.Matrices))}
	for _, ref := range rec.Matrices {
		path := filepath.Join(dir, ref.Name+blobExt)
		blob, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return bundle{}, errors.Wrapf(ErrCorrupt, "store: missing %s", path)
		}
		if err != nil {
			return bundle{}, errors.Wrapf(err, "store: read %s", path)
		}
		b.blobs[ref.Name] = blob
	}

	return b, nil
}
