// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"

	apperrors "supatodo/cli/internal/errors"
)

// GetUser calls GET /user with the bearer token. A successful answer is cached
// per token; when the call fails for any reason other than a rejected token, a
// cached answer younger than userCacheTTL is returned instead of the error.
func (h *HTTP) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	err := h.call(ctx, http.MethodGet, "/user", accessToken, nil, &u)
	if err == nil {
		h.mu.Lock()
		h.userCache[accessToken] = cachedUser{user: u, at: h.now()}
		h.mu.Unlock()
		return &u, nil
	}
	if apperrors.IsKind(err, apperrors.TransportFailed) {
		if cached, ok := h.cachedUser(accessToken); ok {
			return &cached, nil
		}
	}
	return nil, err
}

func (h *HTTP) cachedUser(token string) (User, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.userCache[token]
	if !ok || h.now().Sub(c.at) > userCacheTTL {
		return User{}, false
	}
	return c.user, true
}

func (h *HTTP) forgetUser(token string) {
	h.mu.Lock()
	delete(h.userCache, token)
	h.mu.Unlock()
}
