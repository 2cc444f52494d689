// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/corpex/matrix"
)

// ExampleMul reconstructs a latent vector as a convex combination of corpus rows.
func ExampleMul() {
	corpus, _ := matrix.NewFromRows([][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}})
	weights, _ := matrix.NewFromRows([][]float64{{0, 0.5, 0.5, 0}})

	approx, _ := matrix.Mul(weights, corpus)
	fmt.Print(approx)
	// Output:
	// [0.5, 0.5]
}
