// Copyright 2026 The Adaptive Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package learner defines the contract shared by the adaptive sampling
// engines: ask for points, tell their values, report a loss, and
// (optionally) report completion. quad.IntegratorLearner and
// tri.TriangulatingLearner both satisfy subsets of this contract; the
// triangulator has no intrinsic stopping rule, so it does not
// implement Doner.
package learner

import "fmt"

// Asker requests up to n candidate points, each with a loss-improvement
// estimate (larger means sampling it will help more). A non-nil error
// means the learner hit a fatal condition while scheduling work, e.g.
// the integrator detecting a divergent integrand; points dispensed
// before the failure are still returned.
type Asker[Point any] interface {
	Ask(n int) (points []Point, lossImprovements []float64, err error)
}

// Teller supplies the value computed at a previously asked point.
type Teller[Point, Value any] interface {
	Tell(point Point, value Value) error
}

// Losser reports the current scalar "how badly resolved" estimate.
type Losser interface {
	Loss(real bool) float64
}

// Doner reports whether the learner considers itself finished.
type Doner interface {
	Done() bool
}

// Resetter drops all pending (dispensed-but-not-told) state so the
// caller can restart without rebuilding the learner.
type Resetter interface {
	RemoveUnfinished()
}

// ErrKind classifies the errors raised at the learner boundary.
type ErrKind int

const (
	// ErrMisuse signals a caller error: an unknown point told, a
	// missing required tolerance, or a similarly invalid request.
	ErrMisuse ErrKind = iota
	// ErrDivergence signals that the integrand appears non-integrable.
	ErrDivergence
)

func (k ErrKind) String() string {
	switch k {
	case ErrMisuse:
		return "misuse"
	case ErrDivergence:
		return "divergence"
	default:
		return "unknown"
	}
}

// Kinder is implemented by package-specific error types (e.g.
// quad.DivergentIntegralError) that carry more payload than Error but
// still answer the same "misuse or divergence?" question. Error itself
// exposes its classification through its Kind field, not this method.
type Kinder interface {
	Kind() ErrKind
}

// Error is the common error type raised at the learner boundary. Kind
// lets callers distinguish a caller mistake (ErrMisuse) from a fatal
// property of the integrand (ErrDivergence) without string matching.
type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Misusef builds an ErrMisuse Error with a formatted message.
func Misusef(format string, args ...interface{}) error {
	return &Error{Kind: ErrMisuse, Msg: fmt.Sprintf(format, args...)}
}

// Divergencef builds an ErrDivergence Error with a formatted message.
func Divergencef(format string, args ...interface{}) error {
	return &Error{Kind: ErrDivergence, Msg: fmt.Sprintf(format, args...)}
}
