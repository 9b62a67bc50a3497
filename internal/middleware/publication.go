package middleware

import (
	"context"
	"net/http"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/logging"
	"github.com/reelplanner/backend/internal/models"
)

// PublicationChecker reports the publication flag and whether a caller is an admin.
type PublicationChecker interface {
	PublicationState(ctx context.Context) (models.PublicationState, error)
	IsAdmin(ctx context.Context, caller string) (bool, error)
}

// PublicationGate answers 503 to everyone but admins while the application
// is unpublished.
func PublicationGate(checker PublicationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			state, err := checker.PublicationState(ctx)
			if err != nil {
				logger.Error("load publication state", "error", err)
				writeError(w, http.StatusInternalServerError, "unable to load publication state")
				return
			}
			if state == models.Published {
				next.ServeHTTP(w, r)
				return
			}

			admin, err := checker.IsAdmin(ctx, auth.IdentityFromContext(ctx))
			if err != nil {
				logger.Error("resolve caller role", "error", err)
				writeError(w, http.StatusInternalServerError, "unable to resolve caller role")
				return
			}
			if !admin {
				writeError(w, http.StatusServiceUnavailable, "application is unpublished")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
