// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend talks to the GoTrue authentication service that fronts the
// todos API. It covers the password grant, refresh, user lookup, logout and a
// health probe. Request dispatch for the data plane lives in internal/transport.
package backend

import (
	"context"
	"time"
)

// API defines the auth operations the CLI depends on.
// Implementations may call a real GoTrue server or provide fakes for tests.
type API interface {
	// SignIn exchanges an email and password for a session.
	SignIn(ctx context.Context, email, password string) (*TokenResponse, error)
	// Refresh exchanges a refresh token for a new session. GoTrue may rotate
	// the refresh token; an empty RefreshToken in the response means "keep the old one".
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	// GetUser returns the user that owns accessToken.
	GetUser(ctx context.Context, accessToken string) (*User, error)
	// Logout revokes the session behind accessToken.
	Logout(ctx context.Context, accessToken string) error
	// Health returns the server version string.
	Health(ctx context.Context) (string, error)
}

// User is the subset of the GoTrue user object the CLI uses.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Aud   string `json:"aud,omitempty"`
}

// TokenResponse is a session issued by the token endpoint.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	User         User
}
