// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/katalvlaran/corpex/explain"
	"github.com/katalvlaran/corpex/matrix"
)

// Sentinel errors; match with errors.Is.
var (
	ErrNotFound   = errors.New("store: not found")
	ErrCorrupt    = errors.New("store: corrupt data")
	ErrInvalidKey = errors.New("store: invalid key")
	ErrClosed     = errors.New("store: closed")
)

// Store persists explainer states.
type Store interface {
	Save(ctx context.Context, key Key, st explain.State) error
	Load(ctx context.Context, key Key) (explain.State, error)
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context) ([]Key, error)
}

// MatrixStore persists named bundles of matrices outside the explainer key space.
type MatrixStore interface {
	SaveMatrices(ctx context.Context, name string, mats map[string]*matrix.Dense) error
	LoadMatrices(ctx context.Context, name string) (map[string]*matrix.Dense, error)
}

// Key addresses one fitted explainer.
type Key struct {
	Kind explain.Kind
	CV   int
	Keep int // ignored for the representer; <=0 means "no sparsity target"
}

// String renders "<kind>_cv<cv>_n<keep>" or "<kind>_cv<cv>".
func (k Key) String() string {
	if k.Kind == explain.KindRepresenter || k.Keep <= 0 {
		return fmt.Sprintf("%s_cv%d", k.Kind, k.CV)
	}

	return fmt.Sprintf("%s_cv%d_n%d", k.Kind, k.CV, k.Keep)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	i := strings.LastIndex(s, "_cv")
	if i <= 0 {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q", s)
	}
	kind, err := explain.ParseKind(s[:i])
	if err != nil {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q: %v", s, err)
	}
	rest := s[i+len("_cv"):]
	keepPart := ""
	if j := strings.Index(rest, "_n"); j >= 0 {
		rest, keepPart = rest[:j], rest[j+len("_n"):]
	}
	cv, err := strconv.Atoi(rest)
	if err != nil {
		return Key{}, errors.Wrapf(ErrInvalidKey, "%q: cv", s)
	}
	k := Key{Kind: kind, CV: cv}
	if keepPart != "" {
		if k.Keep, err = strconv.Atoi(keepPart); err != nil {
			return Key{}, errors.Wrapf(ErrInvalidKey, "%q: keep", s)
		}
	}

	return k, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.Wrapf(ErrInvalidKey, "%q", name)
	}

	return nil
}
