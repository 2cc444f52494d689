// SPDX-License-Identifier: MIT

package simplex_test

import (
	"fmt"

	"github.com/katalvlaran/corpex/matrix"
	"github.com/katalvlaran/corpex/simplex"
)

func ExampleProject() {
	w, _ := simplex.Project([]float64{0.5, 0.5, 0.5, 0.5})
	fmt.Println(w)
	w, _ = simplex.Project([]float64{2, 0})
	fmt.Println(w)
	// Output:
	// [0.25 0.25 0.25 0.25]
	// [1 0]
}

func ExampleExplainer_Decompose() {
	corpus, _ := matrix.NewFromRows([][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}})
	test, _ := matrix.NewFromRows([][]float64{{1, 0}})

	ex, _ := simplex.New(corpus, simplex.WithKeep(1), simplex.WithEpochs(2000))
	if err := ex.Fit(test); err != nil {
		fmt.Println(err)
		return
	}
	parts, _ := ex.Decompose(0)
	for _, p := range parts {
		fmt.Printf("corpus[%d] weight %.2f\n", p.Index, p.Weight)
	}
	// Output: corpus[1] weight 1.00
}
