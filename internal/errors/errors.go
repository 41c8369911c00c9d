// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so the tick loop can tell a construction failure
// (nothing was sent) from a transport failure (something was sent and failed).
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConstructionFailed indicates a request could not be built; nothing was dispatched.
	ConstructionFailed Kind = "construction_failed"
	// TransportFailed indicates the network call failed or returned a non-2xx status.
	TransportFailed Kind = "transport_failed"
	// DecodeFailed indicates the response body did not match the expected shape.
	DecodeFailed Kind = "decode_failed"
	// AuthFailed indicates sign-in, refresh or session validation failure.
	AuthFailed Kind = "auth_failed"
	// ConfigInvalid indicates an unusable configuration value.
	ConfigInvalid Kind = "config_invalid"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// IsKind reports whether any error in err's chain is an *E of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *E
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
