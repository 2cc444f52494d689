// Package schedule provides regularization schedules for iterative optimizers.
//
// A Schedule maps an epoch index in [0, Steps()] to a positive coefficient.
// Exponential interpolates geometrically between an initial and a final value
// (r(e) = initial · (final/initial)^(e/total)); Constant returns one value for
// every step.
//
// Schedules are immutable after construction and safe for concurrent reads.
package schedule
