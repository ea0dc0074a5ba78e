package auth

import (
	"context"

	"github.com/bikerly/api/internal/db"
)

/* Context key types for type-safe context values */
type contextKey string

const (
	currentUserKey contextKey = "current_user"
	claimsKey      contextKey = "claims"
)

/* SetCurrentUser sets the resolved user in context */
func SetCurrentUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

/* CurrentUser gets the resolved user from context */
func CurrentUser(ctx context.Context) (*db.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*db.User)
	return user, ok
}

/* SetClaims sets the verified token claims in context */
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

/* ClaimsFromContext gets the verified token claims from context */
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
