package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supatodo/cli/internal/auth"
	"supatodo/cli/internal/backend"
	"supatodo/cli/internal/config"
	"supatodo/cli/internal/dispatch"
	"supatodo/cli/internal/postgrest"
	"supatodo/cli/internal/todo"
	"supatodo/cli/internal/transport"
)

const ownerID = "8d0fd2b3-9ca7-4d9e-a95f-9e13dded323e"

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubAuth struct{ user backend.User }

func (s stubAuth) SignIn(context.Context, string, string) (*backend.TokenResponse, error) {
	return &backend.TokenResponse{AccessToken: "jwt", RefreshToken: "rt", User: s.user}, nil
}
func (stubAuth) Refresh(context.Context, string) (*backend.TokenResponse, error) { return nil, nil }
func (s stubAuth) GetUser(context.Context, string) (*backend.User, error) { return &s.user, nil }
func (stubAuth) Logout(context.Context, string) error { return nil }
func (stubAuth) Health(context.Context) (string, error) { return "", nil }

// todosServer imitates PostgREST for the todos table.
type todosServer struct {
	mu      sync.Mutex
	gets    int
	posts   int
	bearers []string
	status  int
}

func (s *todosServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bearers = append(s.bearers, r.Header.Get("Authorization"))
	switch r.Method {
	case http.MethodGet:
		s.gets++
	case http.MethodPost:
		s.posts++
	}
	if s.status != 0 {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"code":"PGRST301","message":"JWT expired"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`[{"id":7,"inserted_at":"2025-03-01T12:00:00Z","is_complete":false,"task":"this is a new task","user_id":"` + ownerID + `"}]`))
}

func (s *todosServer) fail(status int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *todosServer) authHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bearers...)
}

func (s *todosServer) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.posts
}

type harness struct {
	app    *App
	svc    *auth.Service
	server *todosServer
	out    *bytes.Buffer
}

func newHarness(t *testing.T, opts Options, user backend.User) *harness {
	t.Helper()
	srv := &todosServer{}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	holder := auth.NewHolder()
	svc := auth.NewService(stubAuth{user: user}, nil, holder, nil)
	out := &bytes.Buffer{}
	a := New(
		holder,
		postgrest.New(ts.URL+"/rest/v1", "anon"),
		transport.NewClient[todo.TaskList](context.Background(), ts.Client()),
		dispatch.NewRenderer(out, false),
		nil,
		opts,
	)
	return &harness{app: a, svc: svc, server: srv, out: out}
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	_, err := h.svc.SignIn(context.Background(), auth.Credentials{ID: "a@b.c", Password: "pw"})
	require.NoError(t, err)
}

func (h *harness) run(ticks int) {
	r := h.app.Runner()
	r.Start(t0)
	for i := 1; i <= ticks; i++ {
		r.Tick(t0.Add(time.Duration(i) * time.Second))
	}
	h.app.Drain()
}

func TestApp_AuthenticatedCadence(t *testing.T) {
	h := newHarness(t, Options{}, backend.User{ID: ownerID})
	h.signIn(t)
	h.run(6)

	gets, posts := h.server.counts()
	assert.Equal(t, 6, gets)
	assert.Equal(t, 2, posts)
	for _, b := range h.server.authHeaders() {
		assert.Equal(t, "Bearer jwt", b)
	}

	st := h.app.Stats()
	assert.Equal(t, 8, st.Batches)
	assert.Equal(t, 8, st.Tasks)
	assert.Equal(t, 0, st.Errors)
	assert.Equal(t, 8, strings.Count(h.out.String(), "[TASK] 7 this is a new task false 2025-03-01T12:00:00Z "+ownerID))
}

func TestApp_UnauthenticatedIssuesNothing(t *testing.T) {
	h := newHarness(t, Options{}, backend.User{ID: ownerID})
	h.run(6)

	gets, posts := h.server.counts()
	assert.Zero(t, gets)
	assert.Zero(t, posts)
	assert.Empty(t, h.out.String())
}

func TestApp_AttachPolicyReadsWithoutToken(t *testing.T) {
	h := newHarness(t, Options{ReadPolicy: config.PolicyAttach}, backend.User{ID: ownerID})
	h.run(3)

	gets, posts := h.server.counts()
	assert.Equal(t, 3, gets)
	assert.Zero(t, posts, "inserts always require a session")
	for _, b := range h.server.authHeaders() {
		assert.Empty(t, b)
	}
}

func TestApp_WriteWithoutValidOwnerIsNotSent(t *testing.T) {
	h := newHarness(t, Options{}, backend.User{ID: "not-a-uuid"})
	h.signIn(t)

	_, ok := h.app.Write()
	assert.False(t, ok)
	h.app.Drain()
	_, posts := h.server.counts()
	assert.Zero(t, posts)
}

func TestApp_FailuresAreRenderedAndLoopContinues(t *testing.T) {
	h := newHarness(t, Options{}, backend.User{ID: ownerID})
	h.server.fail(http.StatusUnauthorized)
	h.signIn(t)
	h.run(3)

	st := h.app.Stats()
	assert.Equal(t, 4, st.Errors, "three reads and one write")
	out := h.out.String()
	assert.Equal(t, 4, strings.Count(out, "[ERR] transport_failed: status 401: JWT expired"))
	assert.Contains(t, out, `[BODY] "{\"code\":\"PGRST301\",\"message\":\"JWT expired\"}"`)
}

func TestApp_ReadReturnsIncreasingSeq(t *testing.T) {
	h := newHarness(t, Options{ReadPolicy: config.PolicyAttach}, backend.User{})
	first, ok := h.app.Read()
	require.True(t, ok)
	second, ok := h.app.Read()
	require.True(t, ok)
	assert.Greater(t, second, first)
	h.app.Drain()
}
