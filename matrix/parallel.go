// SPDX-License-Identifier: MIT

// Package matrix - row-parallel execution helper.
//
// Row-wise kernels (simplex projection, neighbor search) touch disjoint rows,
// so splitting the row range across goroutines yields results identical to
// the sequential loop.

package matrix

import (
	"golang.org/x/sync/errgroup"
)

// ParallelRows calls fn(i) for every i in [0,rows) using up to workers goroutines.
// workers<1 means DefaultWorkers; workers==1 runs inline in order.
// The first error returned by fn is reported; remaining chunks still finish.
//
// Complexity: O(rows) calls; chunking is contiguous so each worker walks
// a cache-friendly block of rows.
func ParallelRows(rows, workers int, fn func(i int) error) error {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if workers == 1 || rows <= 1 {
		for i := 0; i < rows; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}

		return nil
	}
	if workers > rows {
		workers = rows
	}

	chunk := (rows + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < rows; start += chunk {
		lo, hi := start, min(start+chunk, rows)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}

			return nil
		})
	}

	return g.Wait()
}
