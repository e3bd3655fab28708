// Package errs classifies domain failures so the HTTP layer can map them
// to status codes without inspecting message text.
package errs

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUpstream Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindConflict
	KindLocked
	KindNotFound
	KindUnconfigured
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindLocked:
		return "locked"
	case KindNotFound:
		return "not_found"
	case KindUnconfigured:
		return "unconfigured"
	default:
		return "upstream"
	}
}

// Error is a classified domain error. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrUnconfigured is returned by datastore-backed operations when no
// datastore connection is configured.
var ErrUnconfigured = &Error{Kind: KindUnconfigured, Message: "datastore is not configured"}

func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Locked(format string, args ...any) error {
	return &Error{Kind: KindLocked, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a datastore failure. The message of err is passed through.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUpstream, Err: err}
}

// KindOf classifies err. Unclassified errors are upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// Is reports whether err carries kind k
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
