package userctx

import (
	"context"

	"github.com/blogem/registros/models"
)

// Context key type
type contextKey string

const userKey contextKey = "user"

// SetUser adds the authenticated user to the request context
func SetUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated user from the request context
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// GetUsername returns the username of the authenticated user, or "anonymous"
func GetUsername(ctx context.Context) string {
	if user, ok := GetUser(ctx); ok {
		return user.Username
	}
	return "anonymous"
}
