// Package apperr defines the stable, string-tagged error kinds of the
// playground core and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error kind.
type Kind string

const (
	// Identity / lookup failures.
	KindUnknownScenario     Kind = "UnknownScenario"
	KindUnknownSession      Kind = "UnknownSession"
	KindDuplicateScenarioID Kind = "DuplicateScenarioId"
	KindCatalogueLoadError  Kind = "CatalogueLoadError"

	// Request-validation failures; caller-correctable.
	KindMalformedRequest      Kind = "MalformedRequest"
	KindInvalidAction         Kind = "InvalidAction"
	KindInvalidAmount         Kind = "InvalidAmount"
	KindInsufficientResources Kind = "InsufficientResources"

	// State failures.
	KindSessionTerminated Kind = "SessionTerminated"
	KindTurnTimeout       Kind = "TurnTimeout"
	KindInternalRuleError Kind = "InternalRuleError"

	KindUnknown Kind = "Internal"
)

// Error carries a kind, a human message, and optional structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithDetails attaches structured details and returns the same error.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// KindOf extracts the kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its HTTP status equivalent.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnknownScenario, KindUnknownSession:
		return http.StatusNotFound
	case KindMalformedRequest, KindInvalidAction, KindInvalidAmount, KindInsufficientResources:
		return http.StatusBadRequest
	case KindSessionTerminated:
		return http.StatusConflict
	case KindTurnTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
