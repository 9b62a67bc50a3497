package handlers

import (
	"net/http"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
)

// GateHandler exposes the publication flag and the caller's role.
type GateHandler struct {
	Gate AccessGate
}

// Publication handles GET /api/v1/publication. Anyone may call it.
func (h GateHandler) Publication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.Gate.PublicationState(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, publicationResponse{State: state})
}

// Role handles GET /api/v1/me/role.
func (h GateHandler) Role(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.IdentityFromContext(ctx)

	role, err := h.Gate.CallerRole(ctx, caller)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, roleResponse{
		Identity: caller,
		Role:     role,
		IsAdmin:  role == models.RoleAdmin,
	})
}

// AdminHandler serves the staff-only endpoints. Permission checks happen in
// the planner, so a guest gets 401 and a user 403.
type AdminHandler struct {
	Stats     StatsProvider
	Gate      AccessGate
	Snapshots SnapshotExporter
}

// Statistics handles GET /api/v1/admin/statistics.
func (h AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.Stats.Statistics(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, stats)
}

// UserCount handles GET /api/v1/admin/users/count.
func (h AdminHandler) UserCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.Stats.UserCount(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]int{"count": count})
}

// Activity handles GET /api/v1/admin/users/activity.
func (h AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activity, err := h.Stats.AllUserActivity(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"activity": activity})
}

// AssignRole handles PUT /api/v1/admin/roles.
func (h AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Identity string      `json:"identity" validate:"required,notblank"`
		Role     models.Role `json:"role" validate:"required,oneof=admin user guest"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Gate.AssignRole(ctx, auth.IdentityFromContext(ctx), req.Identity, req.Role); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, roleResponse{Identity: req.Identity, Role: req.Role, IsAdmin: req.Role == models.RoleAdmin})
}

// SetPublication handles PUT /api/v1/admin/publication.
func (h AdminHandler) SetPublication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publicationResponse
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.Gate.SetPublicationState(ctx, auth.IdentityFromContext(ctx), req.State)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, publicationResponse{State: state})
}

// TogglePublication handles POST /api/v1/admin/publication/toggle.
func (h AdminHandler) TogglePublication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.Gate.TogglePublicationState(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, publicationResponse{State: state})
}

// Snapshot handles POST /api/v1/admin/snapshots.
func (h AdminHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Snapshots == nil {
		logging.FromContext(ctx).Warn("snapshot requested without object storage")
		respondMessage(ctx, w, http.StatusServiceUnavailable, "snapshot export is not configured")
		return
	}

	result, err := h.Snapshots.Export(ctx, auth.IdentityFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, result)
}

type publicationResponse struct {
	State models.PublicationState `json:"state" validate:"required,oneof=published unpublished"`
}

type roleResponse struct {
	Identity string      `json:"identity"`
	Role     models.Role `json:"role"`
	IsAdmin  bool        `json:"isAdmin"`
}
