// SPDX-License-Identifier: MIT

package representer

import "math"

// Method selects how the coefficients are computed.
type Method int

const (
	// KernelRidge solves the ridge-regularised Gram system.
	KernelRidge Method = iota
	// Representer uses the closed form α = R/(2λ').
	Representer
)

// String returns the persisted method name.
func (m Method) String() string {
	if m == Representer {
		return "representer"
	}

	return "kernel_ridge"
}

// Defaults.
const (
	// DefaultRegularization is the weight decay factor λ.
	DefaultRegularization = 0.1
	// DefaultRidgeFloor is the smallest effective ridge λ' ever used.
	DefaultRidgeFloor = 1e-8
	DefaultMethod     = KernelRidge
)

const (
	panicReg    = "representer: WithRegularization: λ must be finite and >= 0"
	panicFloor  = "representer: WithRidgeFloor: floor must be finite and > 0"
	panicMethod = "representer: WithMethod: unknown method"
)

// Option configures an Explainer.
type Option func(*options)

type options struct {
	reg    float64
	floor  float64
	method Method
}

func gatherOptions(opts []Option) options {
	o := options{reg: DefaultRegularization, floor: DefaultRidgeFloor, method: DefaultMethod}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// WithRegularization sets λ.
func WithRegularization(reg float64) Option {
	if !(reg >= 0) || math.IsInf(reg, 0) {
		panic(panicReg)
	}

	return func(o *options) { o.reg = reg }
}

// WithRidgeFloor sets the lower bound on λ'.
func WithRidgeFloor(floor float64) Option {
	if !(floor > 0) || math.IsInf(floor, 0) {
		panic(panicFloor)
	}

	return func(o *options) { o.floor = floor }
}

// WithMethod selects KernelRidge or Representer.
func WithMethod(m Method) Option {
	if m != KernelRidge && m != Representer {
		panic(panicMethod)
	}

	return func(o *options) { o.method = m }
}
