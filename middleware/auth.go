package middleware

import (
	"context"
	"errors"
	"net/http"

	"gitea.com/go-chi/session"
	"github.com/rs/zerolog/log"

	"github.com/blogem/registros/models"
	"github.com/blogem/registros/repositories"
	"github.com/blogem/registros/userctx"
)

// Session keys set on login.
const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
	SessionRole     = "role"
)

// UserLoader loads the user a session points at.
type UserLoader interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// RequireAuth ensures the user is authenticated.
// If not authenticated, redirects to /login.
func RequireAuth(users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.GetSession(r)
			userID, ok := sess.Get(SessionUserID).(int64)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			user, err := users.UserByID(r.Context(), userID)
			if errors.Is(err, repositories.ErrNotFound) {
				// account removed since login
				if err := sess.Flush(); err != nil {
					log.Warn().Err(err).Msg("Failed to flush session")
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if err != nil {
				log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load session user")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.SetUser(r.Context(), user)))
		})
	}
}
