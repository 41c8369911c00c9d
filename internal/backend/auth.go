// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
)

// SignIn calls POST /token?grant_type=password with {email, password}.
func (h *HTTP) SignIn(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return h.grant(ctx, "password", body)
}

// Logout calls POST /logout with the session's bearer token. GoTrue answers
// 204 and revokes the refresh tokens of that session.
func (h *HTTP) Logout(ctx context.Context, accessToken string) error {
	h.forgetUser(accessToken)
	return h.call(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}
