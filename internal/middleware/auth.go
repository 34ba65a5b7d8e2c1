package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/corebank-ledger/internal/auth"
	"github.com/josh-kwaku/corebank-ledger/internal/handler"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

// Auth validates the bearer token and stores the caller's Identity on the
// request context. The role is recomputed from the username on every
// request; it is never read from the token.
func Auth(secret, adminUsername string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			identity := auth.Identity{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     auth.RoleFor(claims.Username, adminUsername),
			}
			ctx := auth.ContextWithIdentity(r.Context(), identity)
			ctx = logging.With(ctx, "user_id", identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers without the admin role. It must run after
// Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			handler.RespondAppError(w, handler.ErrMissingToken, nil)
			return
		}
		if !identity.IsAdmin() {
			logging.FromContext(r.Context()).Warn("admin route denied", "path", r.URL.Path)
			handler.RespondAppError(w, handler.ErrForbidden, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
