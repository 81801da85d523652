// Package apperr defines the typed domain errors the core returns to its
// callers. Every error carries a Kind so the excluded transport layer can map
// it to a response without parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	ValidationFailed   Kind = "validation_failed"
	NotFound           Kind = "not_found"
	Conflict           Kind = "conflict"
	InsufficientStock  Kind = "insufficient_stock"
	InvalidRelease     Kind = "invalid_release"
	InvalidTransition  Kind = "invalid_transition"
	HasDependents      Kind = "has_dependents"
	NoRoute            Kind = "no_route"
	ProvisioningFailed Kind = "provisioning_failed"
)

// Error is a domain error with enough context for the caller to act on:
// the entity and id it concerns and, where relevant, the offending field.
// Internal storage errors are kept in Err (unwrappable) and never rendered
// into the caller-facing message.
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	Field  string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Entity != "" {
		s += ": " + e.Entity
	}
	if e.ID != "" {
		s += " " + e.ID
	}
	if e.Field != "" {
		s += " (" + e.Field + ")"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a domain error.
func E(kind Kind, entity, id, msg string) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Msg: msg}
}

// Wrap builds a domain error around an underlying cause.
func Wrap(kind Kind, entity, id string, err error) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Err: err}
}

// Wrapf builds a domain error around a cause with a formatted message.
func Wrapf(kind Kind, entity, id string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err (or anything it wraps) is a domain error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the domain error kind, or "" for non-domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
