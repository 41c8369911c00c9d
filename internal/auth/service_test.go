package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"supatodo/cli/internal/backend"
	apperrors "supatodo/cli/internal/errors"
	"supatodo/cli/internal/keychain"
)

type fakeAPI struct {
	mu         sync.Mutex
	signIn     *backend.TokenResponse
	signInErr  error
	refresh    *backend.TokenResponse
	refreshErr error
	user       *backend.User
	logouts    []string
	refreshed  []string
}

func (f *fakeAPI) SignIn(_ context.Context, email, password string) (*backend.TokenResponse, error) {
	return f.signIn, f.signInErr
}

func (f *fakeAPI) Refresh(_ context.Context, rt string) (*backend.TokenResponse, error) {
	f.mu.Lock()
	f.refreshed = append(f.refreshed, rt)
	f.mu.Unlock()
	return f.refresh, f.refreshErr
}

func (f *fakeAPI) GetUser(context.Context, string) (*backend.User, error) {
	if f.user == nil {
		return nil, apperrors.New(apperrors.AuthFailed, "unauthorized")
	}
	return f.user, nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.logouts = append(f.logouts, token)
	return nil
}

func (f *fakeAPI) Health(context.Context) (string, error) { return "test", nil }

var owner = backend.User{ID: "8d0fd2b3-9ca7-4d9e-a95f-9e13dded323e", Email: "a@b.c"}

func newTestService(api *fakeAPI) (*Service, *keychain.Manager) {
	km := keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil))
	return NewService(api, km, NewHolder(), nil), km
}

func TestSignIn_InstallsAndPersists(t *testing.T) {
	api := &fakeAPI{signIn: &backend.TokenResponse{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour), User: owner}}
	svc, km := newTestService(api)

	assert.False(t, svc.Holder().IsAuthenticated())
	sess, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "at", sess.AccessToken())
	assert.True(t, svc.Holder().IsAuthenticated())
	assert.Equal(t, owner.ID, svc.Holder().UserID())

	stored, err := km.LoadAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "at", stored)

	// a fresh service restores what the first one stored
	other := NewService(api, km, NewHolder(), nil)
	restored, ok, err := other.Restore()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "rt", restored.Token.RefreshToken)
	assert.Equal(t, owner, restored.User)
	assert.True(t, other.Holder().IsAuthenticated())
}

func TestSignIn_Failure(t *testing.T) {
	api := &fakeAPI{signInErr: apperrors.New(apperrors.AuthFailed, "Invalid login credentials")}
	svc, _ := newTestService(api)

	_, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "bad"})
	assert.True(t, apperrors.IsKind(err, apperrors.AuthFailed))
	assert.False(t, svc.Holder().IsAuthenticated())

	_, err = svc.SignIn(context.Background(), Credentials{ID: " ", Password: "x"})
	assert.True(t, apperrors.IsKind(err, apperrors.AuthFailed))
}

func TestSignInAsync_ReportsOutcome(t *testing.T) {
	api := &fakeAPI{signIn: &backend.TokenResponse{AccessToken: "at", User: owner}}
	svc, _ := newTestService(api)

	done := make(chan error, 1)
	svc.SignInAsync(context.Background(), Credentials{ID: "a@b.c", Password: "pw"}, func(_ Session, err error) {
		done <- err
	})
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sign in never completed")
	}
	assert.True(t, svc.Holder().IsAuthenticated())
}

func TestRefresh_KeepsRefreshTokenAndUser(t *testing.T) {
	api := &fakeAPI{
		signIn:  &backend.TokenResponse{AccessToken: "at1", RefreshToken: "rt1", User: owner},
		refresh: &backend.TokenResponse{AccessToken: "at2", Expiry: time.Now().Add(time.Hour)},
	}
	svc, km := newTestService(api)
	_, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"rt1"}, api.refreshed)
	assert.Equal(t, "at2", next.AccessToken())
	assert.Equal(t, "rt1", next.Token.RefreshToken)
	assert.Equal(t, owner, next.User)
	assert.Equal(t, "at2", svc.Holder().AccessToken())

	stored, _ := km.LoadAccessToken()
	assert.Equal(t, "at2", stored)
}

func TestRefresh_RejectedClearsSession(t *testing.T) {
	api := &fakeAPI{
		signIn:     &backend.TokenResponse{AccessToken: "at", RefreshToken: "rt", User: owner},
		refreshErr: apperrors.New(apperrors.AuthFailed, "Invalid Refresh Token"),
	}
	svc, km := newTestService(api)
	_, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Holder().IsAuthenticated())
	_, err = km.LoadSession()
	assert.ErrorIs(t, err, keychain.ErrNotFound)
}

func TestEnsureFresh_OnlyWhenExpired(t *testing.T) {
	api := &fakeAPI{
		signIn:  &backend.TokenResponse{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour), User: owner},
		refresh: &backend.TokenResponse{AccessToken: "at2", Expiry: time.Now().Add(time.Hour)},
	}
	svc, _ := newTestService(api)
	_, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.EnsureFresh(context.Background()))
	assert.Empty(t, api.refreshed)

	api.signIn = &backend.TokenResponse{AccessToken: "old", RefreshToken: "rt", Expiry: time.Now().Add(-time.Minute), User: owner}
	_, err = svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFresh(context.Background()))
	assert.Equal(t, []string{"rt"}, api.refreshed)
	assert.Equal(t, "at2", svc.Holder().AccessToken())
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{signIn: &backend.TokenResponse{AccessToken: "at", User: owner}}
	svc, km := newTestService(api)
	_, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, []string{"at"}, api.logouts)
	assert.False(t, svc.Holder().IsAuthenticated())
	_, err = km.LoadAccessToken()
	assert.ErrorIs(t, err, keychain.ErrNotFound)
}

func TestUser(t *testing.T) {
	api := &fakeAPI{signIn: &backend.TokenResponse{AccessToken: "at", User: owner}, user: &owner}
	svc, _ := newTestService(api)

	_, err := svc.User(context.Background())
	assert.True(t, apperrors.IsKind(err, apperrors.AuthFailed))

	_, err = svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	u, err := svc.User(context.Background())
	require.NoError(t, err)
	assert.Equal(t, owner, u)
}

func TestHolder_SessionIsACopy(t *testing.T) {
	h := NewHolder()
	_, ok := h.Session()
	assert.False(t, ok)

	h.set(sessionFromResponse(&backend.TokenResponse{AccessToken: "at", User: owner}))
	s, ok := h.Session()
	require.True(t, ok)
	s.Token.AccessToken = "mutated"
	assert.Equal(t, "at", h.AccessToken())
}

func TestRestore_NothingStored(t *testing.T) {
	svc, _ := newTestService(&fakeAPI{})
	_, ok, err := svc.Restore()
	require.NoError(t, err)
	assert.False(t, ok)

	noKeychain := NewService(&fakeAPI{}, nil, NewHolder(), nil)
	_, ok, err = noKeychain.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureFresh_NetworkFailureLeavesStaleSession(t *testing.T) {
	api := &fakeAPI{
		signIn:     &backend.TokenResponse{AccessToken: "old", RefreshToken: "rt", Expiry: time.Now().Add(-time.Minute), User: owner},
		refreshErr: apperrors.New(apperrors.TransportFailed, "dial tcp: connection refused"),
	}
	svc, _ := newTestService(api)
	_, err := svc.SignIn(context.Background(), Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)

	err = svc.EnsureFresh(context.Background())
	assert.True(t, apperrors.IsKind(err, apperrors.TransportFailed))
	assert.True(t, svc.Holder().IsAuthenticated(), "session is kept for a later refresh")
	assert.False(t, svc.Holder().HasFreshSession(), "expired token must not count as fresh")
}

func TestHolder_HasFreshSession(t *testing.T) {
	h := NewHolder()
	assert.False(t, h.HasFreshSession())

	h.set(Session{Token: &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}, User: owner})
	assert.True(t, h.HasFreshSession())

	h.set(Session{Token: &oauth2.Token{AccessToken: "at"}, User: owner})
	assert.True(t, h.HasFreshSession(), "no expiry means no expiry")

	h.set(Session{Token: &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(-time.Second)}, User: owner})
	assert.False(t, h.HasFreshSession())
}
