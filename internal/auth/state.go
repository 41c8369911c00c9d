// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"supatodo/cli/internal/backend"
	apperrors "supatodo/cli/internal/errors"
)

// Credentials identify a principal for the password grant. ID is the email.
type Credentials struct {
	ID       string
	Password string
}

// Validate rejects credentials that cannot possibly sign in.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return apperrors.New(apperrors.AuthFailed, "email is required")
	}
	if c.Password == "" {
		return apperrors.New(apperrors.AuthFailed, "password is required")
	}
	return nil
}

// Session is an authenticated principal: its token and user record.
type Session struct {
	Token *oauth2.Token
	User  backend.User
}

// AccessToken returns the bearer token, or "" for an empty session.
func (s Session) AccessToken() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

// Expired reports whether the token is past its expiry (with oauth2's
// small early-expiry margin). A token without expiry never expires.
func (s Session) Expired() bool {
	return s.Token != nil && s.Token.AccessToken != "" && !s.Token.Valid()
}

func sessionFromResponse(tr *backend.TokenResponse) Session {
	return Session{
		Token: &oauth2.Token{
			AccessToken:  tr.AccessToken,
			TokenType:    "Bearer",
			RefreshToken: tr.RefreshToken,
			Expiry:       tr.Expiry,
		},
		User: tr.User,
	}
}

// Holder owns the current session. Systems read it through IsAuthenticated
// and AccessToken; only the auth Service writes it.
type Holder struct {
	mu      sync.RWMutex
	session *Session
}

// NewHolder returns an unauthenticated holder.
func NewHolder() *Holder { return &Holder{} }

// IsAuthenticated reports whether a session with an access token is present.
func (h *Holder) IsAuthenticated() bool {
	return h.AccessToken() != ""
}

// HasFreshSession reports whether the installed session carries an access
// token that has not expired yet.
func (h *Holder) HasFreshSession() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session != nil && h.session.AccessToken() != "" && !h.session.Expired()
}

// Session returns a copy of the current session.
func (h *Holder) Session() (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return Session{}, false
	}
	s := *h.session
	if s.Token != nil {
		tok := *s.Token
		s.Token = &tok
	}
	return s, true
}

// AccessToken returns the current bearer token or "".
func (h *Holder) AccessToken() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.AccessToken()
}

// UserID returns the authenticated user's id or "".
func (h *Holder) UserID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return ""
	}
	return h.session.User.ID
}

func (h *Holder) set(s Session) {
	h.mu.Lock()
	h.session = &s
	h.mu.Unlock()
}

func (h *Holder) clear() {
	h.mu.Lock()
	h.session = nil
	h.mu.Unlock()
}
