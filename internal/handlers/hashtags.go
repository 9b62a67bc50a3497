package handlers

import (
	"net/http"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/models"
)

// HashtagHandler serves hashtag listing and upserts.
type HashtagHandler struct {
	Hashtags HashtagTracker
}

// List handles GET /api/v1/hashtags. Without an owner it lists every
// hashtag; with ?owner= it lists the hashtags used by that owner's ideas.
func (h HashtagHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		tags []models.Hashtag
		err  error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		tags, err = h.Hashtags.ListForOwner(ctx, auth.IdentityFromContext(ctx), owner)
	} else {
		tags, err = h.Hashtags.List(ctx)
	}
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"hashtags": tags})
}

// Upsert handles POST /api/v1/hashtags.
func (h HashtagHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Name string `json:"name" validate:"required,notblank,max=64"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	tag, err := h.Hashtags.Upsert(ctx, auth.IdentityFromContext(ctx), req.Name)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tag)
}
