// SPDX-License-Identifier: MIT

package schedule

import (
	"fmt"
	"math"
)

// Exponential interpolates geometrically from Initial (step 0) to Final
// (step Total). Initial==Final gives a constant sequence.
type Exponential struct {
	initial float64
	final   float64
	total   int
	ratio   float64 // final / initial
}

var _ Schedule = (*Exponential)(nil)

// NewExponential validates the parameters and builds the schedule.
//
// Errors:
//   - ErrInvalidSchedule if initial<=0, final<=0, either is not finite, or totalSteps<1.
func NewExponential(initial, final float64, totalSteps int) (*Exponential, error) {
	if !(initial > 0) || !(final > 0) || math.IsInf(initial, 0) || math.IsInf(final, 0) {
		return nil, fmt.Errorf("NewExponential(%g, %g): %w", initial, final, ErrInvalidSchedule)
	}
	if totalSteps < 1 {
		return nil, fmt.Errorf("NewExponential: total steps %d: %w", totalSteps, ErrInvalidSchedule)
	}

	return &Exponential{
		initial: initial,
		final:   final,
		total:   totalSteps,
		ratio:   final / initial,
	}, nil
}

// ValueAt returns initial·(final/initial)^(step/total).
// The endpoints are returned verbatim so ValueAt(0)==initial and
// ValueAt(total)==final hold exactly.
//
// Complexity: O(1).
func (s *Exponential) ValueAt(step int) float64 {
	step = clamp(step, s.total)
	switch step {
	case 0:
		return s.initial
	case s.total:
		return s.final
	}
	if s.initial == s.final {
		return s.initial
	}

	return s.initial * math.Pow(s.ratio, float64(step)/float64(s.total))
}

// Steps returns the total step count.
func (s *Exponential) Steps() int { return s.total }

// Initial returns the value at step 0.
func (s *Exponential) Initial() float64 { return s.initial }

// Final returns the value at the last step.
func (s *Exponential) Final() float64 { return s.final }
