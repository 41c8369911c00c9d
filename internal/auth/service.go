// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth manages the CLI session against GoTrue: password sign-in,
// refresh, restore from the OS keychain and logout. The current session lives
// in a Holder that the tick loop reads as its authentication gate.
package auth

import (
	"context"
	"errors"

	"github.com/pterm/pterm"

	"supatodo/cli/internal/backend"
	apperrors "supatodo/cli/internal/errors"
	"supatodo/cli/internal/keychain"
	"supatodo/cli/internal/logging"
)

// Service centralizes authentication operations against the backend and the
// local keychain. A nil keychain manager disables persistence.
type Service struct {
	be     backend.API
	km     *keychain.Manager
	holder *Holder
	log    *pterm.Logger
}

// NewService wires a Service. holder receives every session change.
func NewService(be backend.API, km *keychain.Manager, holder *Holder, log *pterm.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{be: be, km: km, holder: holder, log: log}
}

// Holder returns the session holder this service writes to.
func (s *Service) Holder() *Holder { return s.holder }

// SignIn performs the password grant, installs the session and persists it.
// Failing to persist is logged but does not fail the sign-in.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return Session{}, err
	}
	tr, err := s.be.SignIn(ctx, creds.ID, creds.Password)
	if err != nil {
		return Session{}, err
	}
	sess := sessionFromResponse(tr)
	s.install(sess)
	s.log.Info("signed in", s.log.Args("user", sess.User.Email, "user_id", sess.User.ID))
	return sess, nil
}

// SignInAsync runs SignIn on its own goroutine so the caller's loop keeps
// ticking; done (may be nil) receives the outcome.
func (s *Service) SignInAsync(ctx context.Context, creds Credentials, done func(Session, error)) {
	go func() {
		sess, err := s.SignIn(ctx, creds)
		if err != nil {
			s.log.Error("sign in failed", s.log.Args("error", logging.Mask(err.Error())))
		}
		if done != nil {
			done(sess, err)
		}
	}()
}

// Refresh exchanges the stored refresh token for a new session. A rejected
// refresh token clears the local session.
func (s *Service) Refresh(ctx context.Context) (Session, error) {
	cur, ok := s.holder.Session()
	if !ok || cur.Token == nil || cur.Token.RefreshToken == "" {
		return Session{}, apperrors.New(apperrors.AuthFailed, "no refresh token")
	}
	tr, err := s.be.Refresh(ctx, cur.Token.RefreshToken)
	if err != nil {
		if apperrors.IsKind(err, apperrors.AuthFailed) {
			s.log.Warn("refresh rejected, clearing session")
			_ = s.ResetLocal()
		}
		return Session{}, err
	}
	next := sessionFromResponse(tr)
	if next.Token.RefreshToken == "" {
		next.Token.RefreshToken = cur.Token.RefreshToken
	}
	if next.User.ID == "" {
		next.User = cur.User
	}
	s.install(next)
	s.log.Debug("session refreshed", s.log.Args("expiry", next.Token.Expiry))
	return next, nil
}

// Restore loads a persisted session into the holder. ok is false when none exists.
func (s *Service) Restore() (Session, bool, error) {
	if s.km == nil {
		return Session{}, false, nil
	}
	sess, ok, err := loadSession(s.km)
	if err != nil || !ok {
		return Session{}, false, err
	}
	s.holder.set(sess)
	s.log.Debug("session restored", s.log.Args("user_id", sess.User.ID, "expired", sess.Expired()))
	return sess, true, nil
}

// EnsureFresh refreshes the held session when its token has expired.
func (s *Service) EnsureFresh(ctx context.Context) error {
	cur, ok := s.holder.Session()
	if !ok || !cur.Expired() {
		return nil
	}
	_, err := s.Refresh(ctx)
	return err
}

// User asks the server who owns the current token.
func (s *Service) User(ctx context.Context) (backend.User, error) {
	token := s.holder.AccessToken()
	if token == "" {
		return backend.User{}, apperrors.New(apperrors.AuthFailed, "not signed in")
	}
	u, err := s.be.GetUser(ctx, token)
	if err != nil {
		return backend.User{}, err
	}
	return *u, nil
}

// Logout revokes the session remotely (best effort) and clears local state.
func (s *Service) Logout(ctx context.Context) error {
	if token := s.holder.AccessToken(); token != "" {
		if err := s.be.Logout(ctx, token); err != nil {
			s.log.Debug("remote logout failed", s.log.Args("error", logging.Mask(err.Error())))
		}
	}
	return s.ResetLocal()
}

// ResetLocal clears the holder and the keychain without remote calls.
func (s *Service) ResetLocal() error {
	s.holder.clear()
	if s.km == nil {
		return nil
	}
	if err := s.km.ClearAuth(); err != nil && !errors.Is(err, keychain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) install(sess Session) {
	s.holder.set(sess)
	if s.km == nil {
		return
	}
	if err := saveSession(s.km, sess); err != nil {
		s.log.Warn("could not persist session", s.log.Args("error", err.Error()))
	}
}
