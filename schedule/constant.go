// SPDX-License-Identifier: MIT

package schedule

import (
	"fmt"
	"math"
)

// Constant returns the same value at every step.
// A zero value is allowed: it switches the penalty off entirely.
type Constant struct {
	value float64
	total int
}

var _ Schedule = (*Constant)(nil)

// NewConstant builds a constant schedule.
// Errors: ErrInvalidSchedule if value<0, value is not finite, or totalSteps<1.
func NewConstant(value float64, totalSteps int) (*Constant, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("NewConstant(%g): %w", value, ErrInvalidSchedule)
	}
	if totalSteps < 1 {
		return nil, fmt.Errorf("NewConstant: total steps %d: %w", totalSteps, ErrInvalidSchedule)
	}

	return &Constant{value: value, total: totalSteps}, nil
}

// ValueAt returns the constant value.
func (s *Constant) ValueAt(int) float64 { return s.value }

// Steps returns the total step count.
func (s *Constant) Steps() int { return s.total }
