// Package derr defines the error taxonomy shared by every stage of a run.
// Each error carries a Kind so callers can branch on the failure class while
// the message names the offending field or value.
package derr

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure.
type Kind string

const (
	// KindConfiguration marks conflicting or missing input channels.
	KindConfiguration Kind = "configuration"
	// KindValidation marks malformed tabular or config schemas.
	KindValidation Kind = "validation"
	// KindDomain marks unknown elements, nuclides or scenarios.
	KindDomain Kind = "domain"
	// KindGeometry marks degenerate or out-of-bounds sources.
	KindGeometry Kind = "geometry"
	// KindUnit marks incompatible field units or axes.
	KindUnit Kind = "unit"
	// KindConsistency marks mismatched field geometries at aggregation.
	KindConsistency Kind = "consistency"
	// KindLookup marks unknown workstation or location names.
	KindLookup Kind = "lookup"
)

// Error is a classified run error.
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

// Is reports kind equality so errors.Is works against bare kind sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == ""
}

// New builds a classified error from a format string.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Configurationf builds a KindConfiguration error.
func Configurationf(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

// Validationf builds a KindValidation error.
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Domainf builds a KindDomain error.
func Domainf(format string, args ...any) *Error {
	return New(KindDomain, format, args...)
}

// Geometryf builds a KindGeometry error.
func Geometryf(format string, args ...any) *Error {
	return New(KindGeometry, format, args...)
}

// Unitf builds a KindUnit error.
func Unitf(format string, args ...any) *Error {
	return New(KindUnit, format, args...)
}

// Consistencyf builds a KindConsistency error.
func Consistencyf(format string, args ...any) *Error {
	return New(KindConsistency, format, args...)
}

// Lookupf builds a KindLookup error.
func Lookupf(format string, args ...any) *Error {
	return New(KindLookup, format, args...)
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind of err, or "" when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
