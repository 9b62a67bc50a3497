package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
)

func TestIPRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Hour).(*ipRateLimiter)
	now := time.Unix(1_700_000_000, 0)
	limiter.WithNowFunc(func() time.Time { return now })

	if !limiter.Allow("1.2.3.4") || !limiter.Allow("1.2.3.4") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Fatal("expected a different key to have its own budget")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("1.2.3.4") {
		t.Fatal("expected a token to be replenished after the window")
	}
}

func TestIPRateLimiterForgetsIdleKeys(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute).(*ipRateLimiter)
	now := time.Unix(1_700_000_000, 0)
	limiter.WithNowFunc(func() time.Time { return now })

	limiter.Allow("idle")
	now = now.Add(2 * time.Minute)
	limiter.Allow("other")

	limiter.mu.Lock()
	_, ok := limiter.visitors["idle"]
	limiter.mu.Unlock()
	if ok {
		t.Fatal("expected idle visitor to be collected")
	}
}

type denyAll struct{ keys []string }

func (d *denyAll) Allow(key string) bool {
	d.keys = append(d.keys, key)
	return false
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := &denyAll{}
	handler := RateLimit(limiter, "auth", 30*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("limited request reached the handler")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30 got %q", rec.Header().Get("Retry-After"))
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "auth:203.0.113.7" {
		t.Fatalf("unexpected limiter keys %v", limiter.keys)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	if got := ClientIP(req); got != "192.0.2.10" {
		t.Fatalf("expected remote host got %q", got)
	}

	req.Header.Set("X-Forwarded-For", " 198.51.100.2 ")
	if got := ClientIP(req); got != "198.51.100.2" {
		t.Fatalf("expected forwarded address got %q", got)
	}
}

type stubVerifier struct {
	identities map[string]string
}

func (v stubVerifier) Verify(token string) (string, error) {
	if id, ok := v.identities[token]; ok {
		return id, nil
	}
	return "", auth.ErrInvalidToken
}

func TestAuthenticate(t *testing.T) {
	verifier := stubVerifier{identities: map[string]string{"good": "alice@example.com"}}

	var seen string
	handler := Authenticate(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := map[string]struct {
		header   string
		status   int
		identity string
	}{
		"guest":         {header: "", status: http.StatusNoContent, identity: ""},
		"valid":         {header: "Bearer good", status: http.StatusNoContent, identity: "alice@example.com"},
		"lower scheme":  {header: "bearer good", status: http.StatusNoContent, identity: "alice@example.com"},
		"wrong scheme":  {header: "Basic good", status: http.StatusUnauthorized},
		"missing token": {header: "Bearer ", status: http.StatusUnauthorized},
		"invalid token": {header: "Bearer bad", status: http.StatusUnauthorized},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			seen = "unset"
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusNoContent && seen != tc.identity {
				t.Fatalf("expected identity %q got %q", tc.identity, seen)
			}
		})
	}
}

type stubChecker struct {
	state  models.PublicationState
	admins map[string]bool
	err    error
}

func (c stubChecker) PublicationState(context.Context) (models.PublicationState, error) {
	return c.state, c.err
}

func (c stubChecker) IsAdmin(_ context.Context, caller string) (bool, error) {
	return c.admins[caller], nil
}

func TestPublicationGate(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	serve := func(checker stubChecker, identity string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), identity))
		rec := httptest.NewRecorder()
		PublicationGate(checker)(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	published := stubChecker{state: models.Published}
	if code := serve(published, ""); code != http.StatusOK {
		t.Fatalf("expected published app to be open got %d", code)
	}

	hidden := stubChecker{state: models.Unpublished, admins: map[string]bool{"root": true}}
	if code := serve(hidden, "alice"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for non-admin got %d", code)
	}
	if code := serve(hidden, "root"); code != http.StatusOK {
		t.Fatalf("expected admin to pass got %d", code)
	}

	broken := stubChecker{err: errors.New("db down")}
	if code := serve(broken, "root"); code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure got %d", code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(base))
	r.Get("/ideas/{title}", func(w http.ResponseWriter, r *http.Request) {
		if logging.RequestIDFromContext(r.Context()) != "req-1" {
			t.Errorf("expected request id on context")
		}
		w.WriteHeader(http.StatusAccepted)
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/ideas/tour", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Fatalf("expected request id echoed got %q", rec.Header().Get(RequestIDHeader))
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["status"] != float64(http.StatusAccepted) || entry["route"] != "/ideas/{title}" {
		t.Fatalf("unexpected log entry %v", entry)
	}

	buf.Reset()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged got %s", buf.String())
	}
}
