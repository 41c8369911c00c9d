// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns network failures from the one-shot commands
// (login, whoami, logout) into short, readable explanations.
package httperrors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// Category groups network failures by what the user can do about them.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	ConnectionRefused
	TLS
	Server
)

func (c Category) String() string {
	switch c {
	case Timeout:
		return "timeout"
	case DNS:
		return "dns"
	case ConnectionRefused:
		return "connection_refused"
	case TLS:
		return "tls"
	case Server:
		return "server"
	default:
		return "generic"
	}
}

// Classify inspects err and returns its category.
func Classify(err error) Category {
	if err == nil {
		return Generic
	}
	lower := strings.ToLower(err.Error())

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) ||
		strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") {
		return Timeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(lower, "connection refused") {
		return ConnectionRefused
	}
	for _, s := range []string{"tls", "x509", "certificate", "handshake"} {
		if strings.Contains(lower, s) {
			return TLS
		}
	}
	for _, s := range []string{"500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable"} {
		if strings.Contains(lower, s) {
			return Server
		}
	}
	return Generic
}

// FormatNetworkError prints an explanation of err to stdout and returns it wrapped.
func FormatNetworkError(err error, action, endpoint string) error {
	if err == nil {
		return nil
	}
	Render(os.Stdout, err, action, endpoint)
	return fmt.Errorf("network error: %w", err)
}

// Render writes the explanation for err to w.
func Render(w io.Writer, err error, action, endpoint string) {
	host := Host(endpoint)
	var title string
	var lines []string
	switch Classify(err) {
	case Timeout:
		title = "Connection timeout while " + action
		lines = []string{
			host + " took too long to respond.",
			"Check that the Supabase stack is healthy and try again.",
		}
	case DNS:
		title = "Cannot resolve " + host + " while " + action
		lines = []string{"Check rest_url/auth_url in your config or SUPATODO_* variables."}
	case ConnectionRefused:
		title = "Connection refused while " + action
		lines = []string{
			"Nothing is listening on " + host + ".",
			"For a local stack run `supabase start`, or point auth_url at your project.",
		}
	case TLS:
		title = "Secure connection failed while " + action
		lines = []string{"Verify the certificate of " + host + ", proxy settings and the system clock."}
	case Server:
		title = "Server error while " + action
		lines = []string{host + " returned a server error. Try again in a few moments."}
	default:
		title = "Cannot reach " + host + " while " + action
		lines = []string{"Check your network and the configured endpoints."}
	}

	pterm.Fprintln(w, pterm.Red(title))
	for _, l := range lines {
		pterm.Fprintln(w, "  "+l)
	}
	pterm.Fprintln(w, pterm.Gray("  details: "+abbreviate(err.Error(), 120)))
}

// Host extracts the host of a URL for messages; it falls back to "server".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
