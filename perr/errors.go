// Copyright 2024 The Pentagrow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package perr defines the fatal and recoverable error kinds raised by the
// core mesh generator, per the error handling design: fatal kinds unwind to
// the top-level driver, recoverable ones are recorded on a Diagnostics value
// instead of propagated as errors.
package perr

import "fmt"

// Kind identifies one of the fatal error kinds a core component can raise.
type Kind int

const (
	_ Kind = iota
	InputFormat
	NotClosed
	TetgenFailed
	MissingOutput
	InvalidPLC
	BoundaryDrift
	EnvelopeInfeasible
	OptimizerFailed
	TangledElements
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "InputFormat"
	case NotClosed:
		return "NotClosed"
	case TetgenFailed:
		return "TetgenFailed"
	case MissingOutput:
		return "MissingOutput"
	case InvalidPLC:
		return "InvalidPLC"
	case BoundaryDrift:
		return "BoundaryDrift"
	case EnvelopeInfeasible:
		return "EnvelopeInfeasible"
	case OptimizerFailed:
		return "OptimizerFailed"
	case TangledElements:
		return "TangledElements"
	default:
		return "Unknown"
	}
}

// Error wraps a fatal Kind with a message and an optional underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a fatal error of the given kind.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a fatal error of the given kind around an underlying cause.
func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Diagnostics accumulates the recoverable conditions of §7: these never
// unwind, they are recorded on the run's output so downstream tools can
// detect them.
type Diagnostics struct {
	// EnvelopeInfeasible lists wall-node indices where ShellBuilder could
	// not satisfy non-inversion after all configured passes.
	EnvelopeInfeasible []int

	// OptimizerFailed is set when the NLP solver returned a non-success
	// status; the last feasible iterate is used regardless.
	OptimizerFailed bool
	OptimizerStatus string

	// TangledElements is the count of negative-volume elements found by
	// the final quality diagnosis, 0 if none.
	TangledElements int

	// SplineFallbackColumns lists wall-node indices where SplineNormals
	// placement produced a tangled pentahedron and the column was rebuilt
	// with the straight-line geometric progression instead (SPEC_FULL.md
	// §4.5's resolution of the SplineNormals Open Question).
	SplineFallbackColumns []int
}

// HasIssues reports whether any recoverable condition was recorded.
func (d *Diagnostics) HasIssues() bool {
	return len(d.EnvelopeInfeasible) > 0 || d.OptimizerFailed || d.TangledElements > 0 ||
		len(d.SplineFallbackColumns) > 0
}
