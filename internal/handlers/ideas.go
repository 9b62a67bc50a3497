package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
	"github.com/reelplanner/backend/internal/planner"
)

// IdeaHandler serves the idea lifecycle and the shared calendar.
type IdeaHandler struct {
	Ideas IdeaPlanner
}

// List handles GET /api/v1/ideas. The optional owner query selects another
// identity's ideas, which only admins may read.
func (h IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.IdentityFromContext(ctx)

	ideas, err := h.Ideas.ListIdeas(ctx, caller, r.URL.Query().Get("owner"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, ideasResponse{Ideas: ideas})
}

// Save handles POST /api/v1/ideas. A partially failed hashtag upsert still
// answers 200 and lists the failures.
func (h IdeaHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.IdentityFromContext(ctx)

	var req ideaRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.Ideas.AddOrUpdateIdea(ctx, caller, req.Title, req.Description, req.Hashtags)
	var partial *planner.HashtagUpsertError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		logging.FromContext(ctx).Warn("idea saved with hashtag failures", "title", req.Title, "failures", len(partial.Failures))
	default:
		respondError(ctx, w, err)
		return
	}

	resp := saveIdeaResponse{Status: "saved", Title: strings.TrimSpace(req.Title)}
	if partial != nil {
		for _, f := range partial.Failures {
			resp.HashtagErrors = append(resp.HashtagErrors, hashtagError{Name: f.Name, Error: f.Err.Error()})
		}
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

// Schedule handles POST /api/v1/ideas/schedule.
func (h IdeaHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.IdentityFromContext(ctx)

	var req scheduleRequest
	if err := decodeJSON(r, w, &req); err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Ideas.ScheduleIdea(ctx, caller, req.Title, *req.ScheduledDate); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"status":        models.StatusScheduled,
		"title":         strings.TrimSpace(req.Title),
		"scheduledDate": *req.ScheduledDate,
	})
}

// DeleteDraft handles DELETE /api/v1/ideas/draft?title=.
func (h IdeaHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.IdentityFromContext(ctx)

	if err := h.Ideas.DeleteDraft(ctx, caller, r.URL.Query().Get("title")); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Calendar handles GET /api/v1/calendar?start=&end=, with both bounds in
// nanoseconds since the Unix epoch.
func (h IdeaHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := auth.IdentityFromContext(ctx)

	start, err := timestampParam(r, "start")
	if err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := timestampParam(r, "end")
	if err != nil {
		respondMessage(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	ideas, err := h.Ideas.ListByDateRange(ctx, caller, start, end)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, ideasResponse{Ideas: ideas})
}

func timestampParam(r *http.Request, name string) (models.Timestamp, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer timestamp", name)
	}
	return models.Timestamp(v), nil
}

type ideaRequest struct {
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Description string   `json:"description" validate:"required,notblank,max=5000"`
	Hashtags    []string `json:"hashtags" validate:"max=30,dive,max=64"`
}

type scheduleRequest struct {
	Title         string            `json:"title" validate:"required,notblank"`
	ScheduledDate *models.Timestamp `json:"scheduledDate" validate:"required"`
}

type ideasResponse struct {
	Ideas []models.VideoIdea `json:"ideas"`
}

type hashtagError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type saveIdeaResponse struct {
	Status        string         `json:"status"`
	Title         string         `json:"title"`
	HashtagErrors []hashtagError `json:"hashtagErrors,omitempty"`
}
