// SPDX-License-Identifier: MIT

package store

import (
	"io"
	"path/filepath"

	"github.com/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	sqliteFile = "explainers.db"
)

// Backend is a Store that can also hold matrix bundles.
type Backend interface {
	Store
	MatrixStore
	io.Closer
}

// Open returns the backend named kind rooted at dir. The SQLite backend
// keeps its database at dir/explainers.db.
func Open(kind, dir string) (Backend, error) {
	switch kind {
	case "", BackendFile:
		fs, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}

		return fs, nil
	case BackendSQLite:
		db, err := OpenSQLite(filepath.Join(dir, sqliteFile))
		if err != nil {
			return nil, err
		}

		return db, nil
	}

	return nil, errors.Errorf("store: unknown backend %q", kind)
}
