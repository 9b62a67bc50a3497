package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/reelplanner/backend/internal/config"
	"github.com/reelplanner/backend/internal/models"
)

func memoryConfig() config.Config {
	cfg := config.Defaults()
	cfg.StoreDriver = config.StoreMemory
	cfg.BootstrapAdmins = []string{" Root@ReelPlanner.dev "}
	return cfg
}

func TestBuildDependenciesMemoryStore(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), memoryConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	if deps.Accounts == nil || deps.Sessions == nil || deps.Verifier == nil {
		t.Fatal("expected account and session services to be configured")
	}
	if deps.Ideas == nil || deps.Hashtags == nil || deps.Profiles == nil || deps.Stats == nil || deps.Gate == nil {
		t.Fatal("expected planner services to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
	if deps.Snapshots != nil {
		t.Fatal("expected snapshot export to be disabled without a bucket")
	}

	admin, err := deps.Gate.IsAdmin(context.Background(), "root@reelplanner.dev")
	if err != nil || !admin {
		t.Fatalf("expected bootstrap admin to be normalized and granted, got %v %v", admin, err)
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := memoryConfig()
	cfg.ObjectStore = config.ObjectStore{Bucket: "snapshots", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	deps, cleanup, err := buildDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	if deps.Snapshots == nil {
		t.Fatal("expected snapshot exporter to be configured")
	}
}

func TestRouterServesSignupAndCORS(t *testing.T) {
	cfg := memoryConfig()
	deps, cleanup, err := buildDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("build dependencies: %v", err)
	}
	defer cleanup()

	router := newRouter(slog.New(slog.NewJSONHandler(io.Discard, nil)), cfg, deps)

	body, _ := json.Marshal(map[string]string{"email": "new@example.com", "password": "supersafe"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewReader(body))
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected CORS header for allowed origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	var resp struct {
		Tokens models.SessionTokens `json:"tokens"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me/role", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Tokens.AccessToken)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var role struct {
		Role models.Role `json:"role"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&role); err != nil {
		t.Fatalf("decode role: %v", err)
	}
	if role.Role != models.RoleUser {
		t.Fatalf("expected signup to provision the user role got %q", role.Role)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	t.Setenv("REELPLANNER_STORE", config.StoreMemory)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := Run(ctx, nil); err == nil {
		t.Fatal("expected error without a command")
	}
	if err := Run(ctx, []string{"explode"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if err := runMigrations(ctx, config.Defaults(), []string{"down"}, io.Discard); err == nil {
		t.Fatal("expected error for unsupported migrate command")
	}
}
