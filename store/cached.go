// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/katalvlaran/corpex/explain"
)

// DefaultCacheSize is the number of states Cached keeps when size < 1.
const DefaultCacheSize = 64

// Cached is a read-through, write-through LRU front over another Store.
// States are copied on the way in and out, so callers never share matrices
// with the cache.
type Cached struct {
	inner  Store
	cache  *lru.Cache[string, explain.State]
	hits   atomic.Int64
	misses atomic.Int64
}

var _ Store = (*Cached)(nil)

// CacheStats is a snapshot of the hit counters.
type CacheStats struct {
	Hits, Misses int64
	Len          int
}

// NewCached wraps inner with an LRU of the given size.
func NewCached(inner Store, size int) (*Cached, error) {
	if inner == nil {
		return nil, errors.New("store: nil inner store")
	}
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, explain.State](size)
	if err != nil {
		return nil, errors.Wrap(err, "store: create cache")
	}

	return &Cached{inner: inner, cache: cache}, nil
}

// Save writes through to the inner store, then caches a copy.
func (c *Cached) Save(ctx context.Context, key Key, st explain.State) error {
	if err := c.inner.Save(ctx, key, st); err != nil {
		c.cache.Remove(key.String())
		return err
	}
	c.cache.Add(key.String(), cloneState(st))

	return nil
}

// Load serves from the cache, falling back to the inner store.
func (c *Cached) Load(ctx context.Context, key Key) (explain.State, error) {
	if st, ok := c.cache.Get(key.String()); ok {
		c.hits.Add(1)
		return cloneState(st), nil
	}
	c.misses.Add(1)
	st, err := c.inner.Load(ctx, key)
	if err != nil {
		return explain.State{}, err
	}
	c.cache.Add(key.String(), cloneState(st))

	return st, nil
}

// Delete evicts and deletes.
func (c *Cached) Delete(ctx context.Context, key Key) error {
	c.cache.Remove(key.String())

	return c.inner.Delete(ctx, key)
}

// List delegates to the inner store.
func (c *Cached) List(ctx context.Context) ([]Key, error) { return c.inner.List(ctx) }

// Stats returns the hit counters and current cache length.
func (c *Cached) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.cache.Len()}
}

func cloneState(st explain.State) explain.State {
	out := st
	if st.Weights != nil {
		out.Weights = st.Weights.Copy()
	}
	if st.Coefficients != nil {
		out.Coefficients = st.Coefficients.Copy()
	}
	if st.CorpusLatents != nil {
		out.CorpusLatents = st.CorpusLatents.Copy()
	}
	if st.TestLatents != nil {
		out.TestLatents = st.TestLatents.Copy()
	}
	if st.Examples != nil {
		out.Examples = st.Examples.Copy()
	}
	if st.Params != nil {
		out.Params = make(map[string]float64, len(st.Params))
		for k, v := range st.Params {
			out.Params[k] = v
		}
	}
	if st.Meta != nil {
		out.Meta = make(map[string]string, len(st.Meta))
		for k, v := range st.Meta {
			out.Meta[k] = v
		}
	}

	return out
}
