// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package endpoint

import "fmt"

// Kind is the flavour of project address that was resolved.
type Kind string

const (
	KindHosted  Kind = "hosted"
	KindLocal   Kind = "local"
	KindCustom  Kind = "custom"
	KindUnknown Kind = "unknown"
)

// Endpoints are the service roots derived from a project address.
type Endpoints struct {
	Kind     Kind
	Base     string
	RestURL  string
	AuthURL  string
	Original string
}

// ParseError is returned for an address that cannot be resolved.
type ParseError struct {
	Input  string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid project URL: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid project URL: %s", e.Reason)
}

func newParseError(input, reason, hint string) *ParseError {
	return &ParseError{Input: input, Reason: reason, Hint: hint}
}
