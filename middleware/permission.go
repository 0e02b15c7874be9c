package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/policy"
	"github.com/blogem/registros/respond"
	"github.com/blogem/registros/userctx"
)

// RequirePermission rejects requests whose user lacks permission.
// It must run after RequireAuth.
func RequirePermission(permission policy.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userctx.GetUser(r.Context())
			if !ok || !policy.Can(user.Role, permission) {
				log.Info().
					Str("user", userctx.GetUsername(r.Context())).
					Str("permission", string(permission)).
					Str("path", r.URL.Path).
					Msg("Permission denied")
				respond.Error(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
