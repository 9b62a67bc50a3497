package middleware

import (
	"net/http"
	"strings"

	"github.com/reelplanner/backend/internal/auth"
	"github.com/reelplanner/backend/internal/logging"
)

// TokenVerifier resolves an access token to the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate resolves the bearer token into the request identity. Requests
// without an Authorization header continue as guests. A header that is
// malformed or carries an invalid token is rejected with 401.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			logger := logging.FromContext(ctx)

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.Warn("malformed authorization header")
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("access token rejected", "error", err)
				writeError(w, http.StatusUnauthorized, "invalid or expired access token")
				return
			}

			ctx = auth.WithIdentity(ctx, identity)
			ctx = logging.WithLogger(ctx, logger.With("identity", identity))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
