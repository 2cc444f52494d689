// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bundles (
	name     TEXT PRIMARY KEY,
	kind     TEXT NOT NULL,
	metadata TEXT NOT NULL,
	saved_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS blobs (
	bundle TEXT NOT NULL REFERENCES bundles(name) ON DELETE CASCADE,
	name   TEXT NOT NULL,
	data   BLOB NOT NULL,
	PRIMARY KEY (bundle, name)
);
CREATE INDEX IF NOT EXISTS idx_bundles_kind ON bundles(kind);
`

// SQLiteStore keeps bundles in a single SQLite database (pure-Go driver).
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var (
	_ Store       = (*SQLiteStore)(nil)
	_ MatrixStore = (*SQLiteStore)(nil)
)

// OpenSQLite opens (or creates) the database at path with WAL journaling.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "store: create %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "store: open %s", path)
	}
	// One connection keeps PRAGMAs and transactions on the same handle.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err = db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "store: %s", pragma)
		}
	}
	if _, err = db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: create schema")
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil

	return err
}

// Save writes st under key in one transaction, replacing any previous bundle.
func (s *SQLiteStore) Save(ctx context.Context, key Key, st explain.State) error {
	if err := st.Validate(); err != nil {
		return errors.Wrapf(err, "store: save %s", key)
	}

	return s.write(ctx, stateBundle(key, st))
}

// Load reads the state saved under key.
func (s *SQLiteStore) Load(ctx context.Context, key Key) (explain.State, error) {
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

// Delete removes the bundle for key and its blobs.
func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE bundle = ?`, key.String()); err != nil {
		return errors.Wrapf(err, "store: delete %s", key)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM bundles WHERE name = ?`, key.String())
	if err != nil {
		return errors.Wrapf(err, "store: delete %s", key)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "store: delete %s", key)
	}

	return nil
}

// List returns every explainer key, sorted by name.
func (s *SQLiteStore) List(ctx context.Context) ([]Key, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM bundles WHERE kind != '' ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "store: list")
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "store: list")
		}
		if k, err := ParseKey(name); err == nil {
			keys = append(keys, k)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "store: list")
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	return keys, nil
}

// SaveMatrices writes a named bundle of matrices.
func (s *SQLiteStore) SaveMatrices(ctx context.Context, name string, mats map[string]*matrix.Dense) error {
	if err := validName(name); err != nil {
		return err
	}

	return s.write(ctx, newBundle(name, "", nil, nil, mats))
}

// LoadMatrices reads a named bundle.
func (s *SQLiteStore) LoadMatrices(ctx context.Context, name string) (map[string]*matrix.Dense, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	b, err := s.read(ctx, name)
	if err != nil {
		return nil, err
	}

	return b.matrices()
}

func (s *SQLiteStore) write(ctx context.Context, b bundle) error {
	if s.db == nil {
		return ErrClosed
	}
	meta, err := marshalRecord(b.rec)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "store: begin")
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM blobs WHERE bundle = ?`, `DELETE FROM bundles WHERE name = ?`} {
		if _, err = tx.ExecContext(ctx, q, b.rec.Name); err != nil {
			return errors.Wrapf(err, "store: replace %s", b.rec.Name)
		}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bundles (name, kind, metadata, saved_at) VALUES (?, ?, ?, ?)`,
		b.rec.Name, b.rec.Kind, string(meta), b.rec.SavedAt); err != nil {
		return errors.Wrapf(err, "store: insert %s", b.rec.Name)
	}
	for _, ref := range b.rec.Matrices {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO blobs (bundle, name, data) VALUES (?, ?, ?)`,
			b.rec.Name, ref.Name, b.blobs[ref.Name]); err != nil {
			return errors.Wrapf(err, "store: insert blob %s/%s", b.rec.Name, ref.Name)
		}
	}

	return errors.Wrap(tx.Commit(), "store: commit")
}

func (s *SQLiteStore) read(ctx context.Context, name string) (bundle, error) {
	if s.db == nil {
		return bundle{}, ErrClosed
	}
	var meta string
	err := s.db.QueryRowContext(ctx, `SELECT metadata FROM bundles WHERE name = ?`, name).Scan(&meta)
	if errors.Is(err, sql.ErrNoRows) {
		return bundle{}, errors.Wrapf(ErrNotFound, "store: %s", name)
	}
	if err != nil {
		return bundle{}, errors.Wrapf(err, "store: read %s", name)
	}
	rec, err := unmarshalRecord([]byte(meta))
	if err != nil {
		return bundle{}, errors.Wrapf(err, "store: %s", name)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM blobs WHERE bundle = ?`, name)
	if err != nil {
		return bundle{}, errors.Wrapf(err, "store: read blobs of %s", name)
	}
	defer rows.Close()

	b := bundle{rec: rec, blobs: make(map[string][]byte, len(rec.Matrices))}
	for rows.Next() {
		var blobName string
		var data []byte
		if err = rows.Scan(&blobName, &data); err != nil {
			return bundle{}, errors.Wrapf(err, "store: scan blob of %s", name)
		}
		b.blobs[blobName] = data
	}
	if err = rows.Err(); err != nil {
		return bundle{}, errors.Wrapf(err, "store: read blobs of %s", name)
	}

	return b, nil
}
