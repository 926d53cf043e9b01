// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eamerr defines the error kinds every component in eam raises,
// so callers can dispatch on Kind rather than parse message strings.
package eamerr

import "fmt"

// Kind identifies a failure category. It is not a type name -- every
// failure in eam carries exactly one Kind, set at the point of origin.
type Kind int

const (
	// Unknown is never returned by eam itself; it is the zero value.
	Unknown Kind = iota
	ConfigInvalid
	UnknownModel
	AmbiguousModel
	LengthMismatch
	InvalidKernelInput
	IOError
	WiderByMismatch
	ResampleSizeExceeded
	EmptyResults
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case UnknownModel:
		return "UnknownModel"
	case AmbiguousModel:
		return "AmbiguousModel"
	case LengthMismatch:
		return "LengthMismatch"
	case InvalidKernelInput:
		return "InvalidKernelInput"
	case IOError:
		return "IOError"
	case WiderByMismatch:
		return "WiderByMismatch"
	case ResampleSizeExceeded:
		return "ResampleSizeExceeded"
	case EmptyResults:
		return "EmptyResults"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type for every eam failure.
type Error struct {
	Kind Kind
	Op   string // component/operation that raised it, e.g. "formula.Evaluate"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap builds an *Error wrapping an existing error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// LengthMismatchErr builds the LengthMismatch(name, k, n) error named in spec §7.
func LengthMismatchErr(op, name string, k, n int) *Error {
	return &Error{
		Kind: LengthMismatch,
		Op:   op,
		Err:  fmt.Errorf("binding %q has length %d, which neither equals %d nor divides it", name, k, n),
	}
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
