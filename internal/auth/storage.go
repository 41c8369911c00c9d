// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/oauth2"

	"supatodo/cli/internal/backend"
	"supatodo/cli/internal/keychain"
)

// storedSession is the keychain form of a Session.
type storedSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	TokenType    string       `json:"token_type,omitempty"`
	Expiry       time.Time    `json:"expiry,omitempty"`
	User         backend.User `json:"user"`
}

func saveSession(km *keychain.Manager, s Session) error {
	if s.Token == nil {
		return errors.New("session has no token")
	}
	if err := km.SaveAuthTokens(s.Token.AccessToken, s.Token.RefreshToken); err != nil {
		return err
	}
	b, err := json.Marshal(storedSession{
		AccessToken:  s.Token.AccessToken,
		RefreshToken: s.Token.RefreshToken,
		TokenType:    s.Token.TokenType,
		Expiry:       s.Token.Expiry,
		User:         s.User,
	})
	if err != nil {
		return err
	}
	return km.SaveSession(b)
}

// loadSession reads a persisted session. A missing session yields ok=false.
func loadSession(km *keychain.Manager) (Session, bool, error) {
	data, err := km.LoadSession()
	if errors.Is(err, keychain.ErrNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var st storedSession
	if err := json.Unmarshal(data, &st); err != nil {
		return Session{}, false, err
	}
	if st.AccessToken == "" {
		return Session{}, false, nil
	}
	// the refresh token key is authoritative
	if rt, err := km.LoadRefreshToken(); err == nil {
		st.RefreshToken = rt
	}
	return Session{
		Token: &oauth2.Token{
			AccessToken:  st.AccessToken,
			TokenType:    st.TokenType,
			RefreshToken: st.RefreshToken,
			Expiry:       st.Expiry,
		},
		User: st.User,
	}, true, nil
}
