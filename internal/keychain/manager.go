// Copyright (c) 2025 Supatodo
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain keeps the CLI's session secrets in the OS credential store.
// The access token, refresh token and serialized session live under the
// "supatodo" service. All operations are safe for concurrent use.
package keychain

import (
	"errors"
	"os"
	"runtime"
	"sync"

	"github.com/99designs/keyring"

	"supatodo/cli/internal/xdg"
)

var (
	globalManager *Manager
	mu            sync.Mutex
)

// ErrNotFound is returned when a secret has never been stored.
var ErrNotFound = errors.New("keychain: item not found")

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "supatodo"

// Keys used for storing secrets.
const (
	KeyAccessToken  = "auth_access_token"
	KeyRefreshToken = "auth_refresh_token"
	KeySession      = "auth_session"
)

// passwordEnv unlocks the encrypted file backend on hosts without a native store.
const passwordEnv = "SUPATODO_KEYRING_PASSWORD"

type store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe access to the credential store.
type Manager struct {
	mu    sync.RWMutex
	store store
}

// NewManager opens the native credential store for this platform.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		if b, err := newSecurityBackend(); err == nil {
			return &Manager{store: b}, nil
		}
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring, such as
// keyring.NewArrayKeyring in tests.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{store: ringStore{ring: ring}}
}

// GetManager returns the process-wide manager, opening it on first use.
// A failed open is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:             ServiceName,
		PassPrefix:              ServiceName,
		WinCredPrefix:           ServiceName,
		LibSecretCollectionName: ServiceName,
		KWalletAppID:            ServiceName,
		KWalletFolder:           ServiceName,
	}
	switch runtime.GOOS {
	case "darwin":
		cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
		if pw := os.Getenv(passwordEnv); pw != "" {
			if dir, err := xdg.StateDir(); err == nil {
				cfg.AllowedBackends = append(cfg.AllowedBackends, keyring.FileBackend)
				cfg.FileDir = dir
				cfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
			}
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "linux" {
			return nil, errors.New("no secret store available: start a Secret Service provider, install 'pass', or set " + passwordEnv)
		}
		return nil, err
	}
	return ring, nil
}

// SaveAuthTokens stores the access and refresh tokens. Empty values are left untouched.
func (m *Manager) SaveAuthTokens(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accessToken != "" {
		if err := m.store.Set(KeyAccessToken, accessToken); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if err := m.store.Set(KeyRefreshToken, refreshToken); err != nil {
			return err
		}
	}
	return nil
}

// LoadAccessToken returns the stored access token or ErrNotFound.
func (m *Manager) LoadAccessToken() (string, error) {
	return m.load(KeyAccessToken)
}

// LoadRefreshToken returns the stored refresh token or ErrNotFound.
func (m *Manager) LoadRefreshToken() (string, error) {
	return m.load(KeyRefreshToken)
}

// SaveSession stores the serialized session.
func (m *Manager) SaveSession(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Set(KeySession, string(data))
}

// LoadSession returns the serialized session or ErrNotFound.
func (m *Manager) LoadSession() ([]byte, error) {
	s, err := m.load(KeySession)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// ClearAuth removes every auth secret. Missing items are ignored.
func (m *Manager) ClearAuth() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeySession} {
		if err := m.store.Delete(k); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) load(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, err := m.store.Get(key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// ringStore adapts a keyring.Keyring to the store interface.
type ringStore struct {
	ring keyring.Keyring
}

func (r ringStore) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
}

func (r ringStore) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(it.Data), nil
}

func (r ringStore) Delete(key string) error {
	if err := r.ring.Remove(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
