// SPDX-License-Identifier: MIT

package simplex

import (
	"math"

	"github.com/katalvlaran/corpex/rng"
)

// exponentialRow fills dst with Exp(1) variates. Row t uses its own derived
// stream so the draw does not depend on the order rows are initialised in.
func exponentialRow(seed int64, t int, dst []float64) {
	r := rng.Stream(seed, uint64(t))
	for j := range dst {
		// 1-Float64() lies in (0,1], so the log is finite.
		dst[j] = -math.Log(1 - r.Float64())
	}
}
