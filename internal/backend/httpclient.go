// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	apperrors "supatodo/cli/internal/errors"
)

// userCacheTTL bounds how long GetUser serves a cached answer when the server
// is unreachable.
const userCacheTTL = 10 * time.Minute

// HTTP implements API over the GoTrue REST endpoints.
type HTTP struct {
	// baseURL is the auth root, e.g. "http://127.0.0.1:54321/auth/v1"
	baseURL string
	// apiKey is sent as the apikey header on every request
	apiKey    string
	userAgent string
	client    *http.Client
	now       func() time.Time

	mu        sync.Mutex
	userCache map[string]cachedUser
}

type cachedUser struct {
	user User
	at   time.Time
}

// New creates a GoTrue client with a 10 second timeout.
func New(baseURL, apiKey, userAgent string) *HTTP {
	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
		userCache: make(map[string]cachedUser),
	}
}

// WithHTTPClient swaps the underlying client; tests pass httptest clients.
func (h *HTTP) WithHTTPClient(c *http.Client) *HTTP {
	h.client = c
	return h
}

// BaseURL returns the auth root the client talks to.
func (h *HTTP) BaseURL() string { return h.baseURL }

// Health calls GET /health and returns the reported version.
func (h *HTTP) Health(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
		Name    string `json:"name"`
	}
	if err := h.call(ctx, http.MethodGet, "/health", "", nil, &out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

func (h *HTTP) setStandardHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("apikey", h.apiKey)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
		req.Header.Set("X-Client-Info", h.userAgent)
	}
}

// call performs one request and decodes a 2xx JSON body into out (when non-nil).
// Failures come back as *apperrors.E wrapping a *StatusError for non-2xx answers.
func (h *HTTP) call(ctx context.Context, method, path, bearer string, body any, out any) error {
	op, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "?")
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.ConstructionFailed, "encode request", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, rdr)
	if err != nil {
		return apperrors.Wrap(apperrors.ConstructionFailed, "create request", err)
	}
	h.setStandardHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.TransportFailed, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.TransportFailed, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Op: op, Status: resp.StatusCode, Message: authErrorMessage(data)}
		kind := apperrors.TransportFailed
		if se.Unauthorized() {
			kind = apperrors.AuthFailed
		}
		return apperrors.Wrap(kind, se.Op, se)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.DecodeFailed, "decode "+op, err)
	}
	return nil
}

// StatusError is a non-2xx answer from the auth server.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.Status, e.Message)
}

// Unauthorized reports whether the server rejected the credentials or token.
// GoTrue answers a bad password grant with 400 invalid_grant.
func (e *StatusError) Unauthorized() bool {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		m := strings.ToLower(e.Message)
		return strings.Contains(m, "invalid") || strings.Contains(m, "expired") || strings.Contains(m, "not found")
	}
	return false
}

// authErrorMessage reads the message out of the GoTrue error shapes
// ({"error","error_description"} and {"code","error_code","msg"}).
func authErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, r := range gjson.GetManyBytes(body, "error_description", "msg", "message", "error", "error_code") {
		if s := r.String(); s != "" {
			return s
		}
	}
	return ""
}
