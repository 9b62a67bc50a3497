package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/repositories"
)

// AuthHandler implements account and session endpoints. The lower-cased
// email of an account is the identity handed to the planner.
type AuthHandler struct {
	Accounts AccountStore
	Sessions SessionManager
	Roles    AccessGate
	NowFunc  func() time.Time
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, w, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	email := normalizeEmail(req.Email)

	account, err := h.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login account lookup failed", "email", email, "error", err)
			respondMessage(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
			return
		}
		logger.Warn("login unknown account", "email", email)
		respondMessage(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(account.Password, req.Password); err != nil {
		logger.Warn("login password mismatch", "accountId", account.ID)
		respondMessage(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, email)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "accountId", account.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Identity: email, Tokens: tokens})
}

// SignUp handles POST /api/v1/auth/signup requests. New accounts are
// provisioned with the user role.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req signUpRequest
	if err := decodeJSON(r, w, &req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	email := normalizeEmail(req.Email)

	if _, err := h.Accounts.FindByEmail(ctx, email); err == nil {
		logger.Warn("signup existing account", "email", email)
		respondMessage(ctx, w, http.StatusConflict, "account already exists")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("signup account lookup failed", "error", err, "email", email)
		respondMessage(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	account := models.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("signup conflict", "email", email)
			respondMessage(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		logger.Error("signup failed to create account", "error", err, "email", email)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	if err := h.Roles.Provision(ctx, email, models.RoleUser); err != nil {
		logger.Error("signup failed to provision role", "error", err, "email", email)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to provision account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, email)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "accountId", account.ID)
		respondMessage(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	logger.Info("account created", "accountId", account.ID)
	respondJSON(ctx, w, http.StatusCreated, authResponse{Identity: email, Tokens: tokens})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req refreshRequest
	if err := decodeJSON(r, w, &req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			logger.Warn("refresh rejected", "error", err)
			respondMessage(ctx, w, http.StatusUnauthorized, "unable to refresh session")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondMessage(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	h.Sessions.Revoke(ctx, strings.TrimSpace(req.RefreshToken))
	w.WriteHeader(http.StatusNoContent)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,notblank"`
}

type authResponse struct {
	Identity string               `json:"identity,omitempty"`
	Tokens   models.SessionTokens `json:"tokens"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
