package registry

import (
	"errors"
	"fmt"
)

// Kind classifies expected engine failures. Callers map kinds to their own
// surface (HTTP status codes, CLI exit messages); the engine is
// presentation-agnostic. Unexpected failures (store transport errors)
// propagate as plain wrapped errors without a kind.
type Kind string

const (
	// KindNotFound means the requested resource is absent.
	KindNotFound Kind = "not_found"
	// KindVersionAlreadyExists means a publish attempted to overwrite an
	// existing immutable version.
	KindVersionAlreadyExists Kind = "version_already_exists"
	// KindForbidden means the caller identity does not own the target
	// namespace.
	KindForbidden Kind = "forbidden"
	// KindInvalidInput means the content, frontmatter, or an identifier
	// failed validation.
	KindInvalidInput Kind = "invalid_input"
	// KindCorruptStorageData means a persisted document failed schema
	// validation, or metadata references a version whose content is
	// missing. Deliberately distinct from KindNotFound so operators can
	// tell "never existed" from "existing but damaged".
	KindCorruptStorageData Kind = "corrupt_storage_data"
)

// Error is a typed, expected engine failure.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of err if it is (or wraps) an engine Error, and
// "" otherwise.
func KindOf(err error) Kind {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func newErrorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func notFoundf(format string, args ...any) *Error {
	return newErrorf(KindNotFound, format, args...)
}

func forbiddenf(format string, args ...any) *Error {
	return newErrorf(KindForbidden, format, args...)
}

func invalidf(format string, args ...any) *Error {
	return newErrorf(KindInvalidInput, format, args...)
}

func corruptf(format string, args ...any) *Error {
	return newErrorf(KindCorruptStorageData, format, args...)
}
