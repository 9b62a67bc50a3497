package handlers

import (
	"net/http"

	"github.com/reelplanner/backend/internal/auth"
)

// ProfileHandler serves the caller's profile.
type ProfileHandler struct {
	Profiles ProfileManager
}

// Get handles GET /api/v1/profile[?owner=].
func (h ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Profiles.GetProfile(ctx, auth.IdentityFromContext(ctx), r.URL.Query().Get("owner"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, profile)
}

// Save handles PUT /api/v1/profile.
func (h ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req profileRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.Profiles.SaveProfile(ctx, auth.IdentityFromContext(ctx), req.Name, req.Bio)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, profile)
}

type profileRequest struct {
	Name string  `json:"name" validate:"required,notblank,max=100"`
	Bio  *string `json:"bio" validate:"omitempty,max=500"`
}
