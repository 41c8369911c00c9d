// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"net/http"
	"strings"
)

// FailureType represents the category of a failed REST or auth request.
type FailureType int

const (
	FailureUnknown FailureType = iota
	FailureNetwork
	FailureAuth
	FailureTimeout
	FailureServer
	FailureClient
	FailureDecode
)

func (f FailureType) String() string {
	switch f {
	case FailureNetwork:
		return "network"
	case FailureAuth:
		return "auth"
	case FailureTimeout:
		return "timeout"
	case FailureServer:
		return "server"
	case FailureClient:
		return "client"
	case FailureDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ClassifyFailure categorizes a failure by HTTP status (0 when the server never
// answered) and its detail message.
func ClassifyFailure(status int, detail string) FailureType {
	lower := strings.ToLower(detail)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return FailureTimeout
	case status >= 500:
		return FailureServer
	case status >= 400:
		if strings.Contains(lower, "jwt") {
			return FailureAuth
		}
		return FailureClient
	case status >= 200 && strings.Contains(lower, "decode"):
		return FailureDecode
	}

	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return FailureTimeout
	}
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof") {
		return FailureNetwork
	}
	return FailureUnknown
}

// Hint returns a one-line suggestion for a failure category, or "" when there
// is nothing useful to add.
func Hint(f FailureType) string {
	switch f {
	case FailureAuth:
		return "session rejected; run 'supatodo login' to sign in again"
	case FailureNetwork:
		return "cannot reach the REST endpoint; is the local stack running?"
	case FailureTimeout:
		return "request timed out; the next tick will try again"
	case FailureServer:
		return "server error; the next tick will try again"
	case FailureDecode:
		return "response did not match the todos row shape"
	default:
		return ""
	}
}
