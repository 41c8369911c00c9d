// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "supatodo/cli/internal/errors"
)

// Refresh calls POST /token?grant_type=refresh_token with {refresh_token}.
func (h *HTTP) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperrors.New(apperrors.AuthFailed, "no refresh token")
	}
	return h.grant(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (h *HTTP) grant(ctx context.Context, grantType string, body map[string]string) (*TokenResponse, error) {
	var raw map[string]any
	if err := h.call(ctx, http.MethodPost, "/token?grant_type="+grantType, "", body, &raw); err != nil {
		return nil, err
	}
	tr := tokenFromPayload(raw, h.now())
	if tr.AccessToken == "" {
		return nil, apperrors.New(apperrors.AuthFailed, "no access_token in response")
	}
	return tr, nil
}

// tokenFromPayload reads a token response, tolerating camelCase field names and
// an expiry given either as expires_at (unix seconds) or expires_in.
func tokenFromPayload(raw map[string]any, now time.Time) *TokenResponse {
	tr := &TokenResponse{
		AccessToken:  extractAccessToken(raw),
		RefreshToken: extractRefreshToken(raw),
		TokenType:    "bearer",
	}
	if v, ok := raw["token_type"].(string); ok && v != "" {
		tr.TokenType = strings.ToLower(v)
	}
	if at, ok := number(raw["expires_at"]); ok && at > 0 {
		tr.Expiry = time.Unix(at, 0)
	} else if in, ok := number(raw["expires_in"]); ok && in > 0 {
		tr.Expiry = now.Add(time.Duration(in) * time.Second)
	}
	if u, ok := raw["user"].(map[string]any); ok {
		tr.User = userFromPayload(u)
	}
	return tr
}

func extractAccessToken(result map[string]any) string {
	for _, k := range []string{"access_token", "accessToken", "token"} {
		if v, ok := result[k].(string); ok && v != "" {
			return v
		}
	}
	if v, ok := result["authorization"].(string); ok {
		return parseBearerToken(v)
	}
	return ""
}

// extractRefreshToken returns "" when the server did not rotate the token.
func extractRefreshToken(result map[string]any) string {
	for _, k := range []string{"refresh_token", "refreshToken"} {
		if v, ok := result[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// parseBearerToken extracts the token from "Bearer <token>" case-insensitively.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 || !strings.EqualFold(v[:6], "bearer") {
		return ""
	}
	return strings.TrimSpace(v[6:])
}

func number(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func userFromPayload(m map[string]any) User {
	var u User
	if b, err := json.Marshal(m); err == nil {
		_ = json.Unmarshal(b, &u)
	}
	return u
}
