// SPDX-License-Identifier: MIT

package schedule

import "errors"

// ErrInvalidSchedule is returned for non-positive endpoints or a step count below one.
var ErrInvalidSchedule = errors.New("schedule: invalid schedule parameters")

// Schedule yields the coefficient to use at a given step.
type Schedule interface {
	// ValueAt returns the coefficient for step in [0, Steps()].
	// Out-of-range steps are clamped to the nearest endpoint.
	ValueAt(step int) float64

	// Steps returns the total number of steps the schedule spans.
	Steps() int
}

// Values materialises s.ValueAt(0..s.Steps()) into a slice of length Steps()+1.
func Values(s Schedule) []float64 {
	out := make([]float64, s.Steps()+1)
	for e := range out {
		out[e] = s.ValueAt(e)
	}

	return out
}

// clamp restricts step to [0, total].
func clamp(step, total int) int {
	if step < 0 {
		return 0
	}
	if step > total {
		return total
	}

	return step
}
