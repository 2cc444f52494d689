// SPDX-License-Identifier: MIT

// Package matrix - small public helpers that do not belong to a kernel file.

package matrix

// Equal reports exact element-wise equality of two same-shaped matrices.
func Equal(a, b *Dense) bool {
	if a == nil || b == nil || a.r != b.r || a.c != b.c {
		return false
	}
	for k := range a.data {
		if a.data[k] != b.data[k] {
			return false
		}
	}

	return true
}
