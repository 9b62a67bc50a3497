package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/planner"
	"github.com/reelplanner/backend/internal/repositories"
)

const adminIdentity = "root@reelplanner.dev"

type testServer struct {
	router   http.Handler
	planner  *planner.Planner
	sessions *auth.Manager
	accounts *repositories.MemoryAccountRepository
}

func newTestServer(t *testing.T, customize func(*Dependencies)) *testServer {
	t.Helper()

	p := planner.New(planner.NewMemoryStore(), planner.Options{})
	if err := p.Gate.BootstrapAdmins(context.Background(), []string{adminIdentity}); err != nil {
		t.Fatalf("bootstrap admins: %v", err)
	}

	sessions := auth.NewManager("test-secret", time.Minute, time.Hour, auth.NewInMemorySessionStore())
	accounts := repositories.NewMemoryAccountRepository()

	deps := Dependencies{
		Accounts: accounts,
		Sessions: sessions,
		Verifier: sessions,
		Ideas:    p.Ideas,
		Hashtags: p.Hashtags,
		Profiles: p.Profiles,
		Stats:    p.Stats,
		Gate:     p.Gate,
	}
	if customize != nil {
		customize(&deps)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, deps)

	return &testServer{router: r, planner: p, sessions: sessions, accounts: accounts}
}

// do sends a JSON request with an optional bearer token.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// tokenFor issues an access token without going through signup.
func (s *testServer) tokenFor(t *testing.T, identity string) string {
	t.Helper()
	tokens, err := s.sessions.Issue(context.Background(), identity)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return tokens.AccessToken
}

// signUp creates an account through the API and returns its access token.
func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", signUpRequest{Email: email, Password: "supersafe"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var resp authResponse
	decode(t, rec, &resp)
	return resp.Tokens.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}
