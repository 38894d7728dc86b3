// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds returned by this package. Test for them with errors.Is, e.g.:
//
//	if errors.Is(err, cifar.ErrFormat) { ... }
var (
	// ErrIO is returned when a file (or the network) is absent or unreadable.
	ErrIO = errors.New("cifar: i/o error")

	// ErrFormat is returned when a deserialized structure is missing expected fields or is malformed.
	ErrFormat = errors.New("cifar: format error")

	// ErrShape is returned when a buffer size is inconsistent with the declared geometry.
	ErrShape = errors.New("cifar: shape error")

	// ErrRange is returned when a label value is out of its valid domain.
	ErrRange = errors.New("cifar: range error")
)

// kindError carries one of the error kinds above plus the cause, which holds the message
// (and stack trace, when created with github.com/pkg/errors).
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }

// Unwrap makes both the kind and the cause visible to errors.Is and errors.As.
func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

// Format forwards to the cause, so "%+v" prints the stack trace.
func (e *kindError) Format(s fmt.State, verb rune) {
	if f, ok := e.cause.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	_, _ = fmt.Fprint(s, e.cause.Error())
}

// withKind wraps err with the given kind. If err already has a kind, it is returned as is.
func withKind(kind, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range []error{ErrIO, ErrFormat, ErrShape, ErrRange} {
		if errors.Is(err, k) {
			return err
		}
	}
	return &kindError{kind: kind, cause: err}
}

func ioErrorf(cause error, format string, args ...any) error {
	return withKind(ErrIO, errors.Wrapf(cause, format, args...))
}

func formatErrorf(format string, args ...any) error {
	return withKind(ErrFormat, errors.Errorf(format, args...))
}

func shapeErrorf(format string, args ...any) error {
	return withKind(ErrShape, errors.Errorf(format, args...))
}

func rangeErrorf(format string, args ...any) error {
	return withKind(ErrRange, errors.Errorf(format, args...))
}
