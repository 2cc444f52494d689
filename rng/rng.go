// SPDX-License-Identifier: MIT

// Package rng centralises deterministic random generation.
//
// Policy:
//   - Every stochastic step takes an explicit seed; nothing reads global state.
//   - Seed 0 maps to DefaultSeed so the zero value stays reproducible.
//   - Independent sub-streams come from Derive (SplitMix64 finalizer), so a
//     stream's values do not depend on how many other streams were drawn.
//
// Concurrency: *rand.Rand is not goroutine-safe. Derive one stream per worker.
package rng

import "math/rand"

// DefaultSeed replaces a zero seed.
const DefaultSeed int64 = 1

// New returns a deterministic *rand.Rand for seed (0 ⇒ DefaultSeed).
func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}

	return rand.New(rand.NewSource(seed))
}

// Derive mixes a parent seed and a stream id into a new seed.
// Small input changes produce well-spread outputs.
//
// Complexity: O(1).
func Derive(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return int64(x)
}

// Stream is New(Derive(parent, stream)).
func Stream(parent int64, stream uint64) *rand.Rand {
	return New(Derive(parent, stream))
}
