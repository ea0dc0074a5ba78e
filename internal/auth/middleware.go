package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/db"
	"github.com/bikerly/api/internal/logging"
)

// Authenticator is the auth gate: it composes token verification with a
// user lookup and enforces the live active-flag check.
type Authenticator struct {
	tokens *TokenManager
	store  db.Store
	logger *logging.Logger
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(tokens *TokenManager, store db.Store, logger *logging.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, store: store, logger: logger}
}

// ExtractToken extracts the bearer token from an Authorization header.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1], nil
	}
	return "", errors.New("invalid authorization header format")
}

// Authenticate resolves the caller's identity from a bearer token: verify
// the token, look the user up by the subject email, and reject inactive
// accounts. Token failures, unknown subjects and inactive accounts all
// produce the same authentication error; the log records which case it was.
func (a *Authenticator) Authenticate(r *http.Request) (*db.User, *Claims, error) {
	tokenString, err := ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, nil, apperrors.Authentication("Could not validate credentials", err)
	}

	claims, err := a.tokens.Verify(tokenString)
	if err != nil {
		a.logger.Warn("Token verification failed", map[string]interface{}{
			"path":  r.URL.Path,
			"cause": err.Error(),
		})
		return nil, nil, err
	}

	user, err := a.store.GetUserByEmail(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			a.logger.Warn("User not found for token subject", map[string]interface{}{
				"email": claims.Subject,
			})
			return nil, nil, apperrors.Authentication("Could not validate credentials", err)
		}
		a.logger.Error("User lookup failed during authentication", err, map[string]interface{}{
			"email": claims.Subject,
		})
		// Fail closed: an erroring lookup denies access.
		return nil, nil, apperrors.Authentication("Could not validate credentials", err)
	}

	if !user.IsActive {
		a.logger.Warn("Inactive user attempted access", map[string]interface{}{
			"email": user.Email,
		})
		return nil, nil, apperrors.Authentication("Account is inactive", fmt.Errorf("account deactivated: %s", user.Email))
	}

	return user, claims, nil
}

// Middleware authenticates every request and stores the resolved identity in
// the request context.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, claims, err := a.Authenticate(r)
			if err != nil {
				apperrors.Write(w, r, err)
				return
			}

			ctx := SetCurrentUser(r.Context(), user)
			ctx = SetClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole enforces an exact role match on an already-authenticated
// request. There is no role hierarchy: admin does not satisfy rider.
func (a *Authenticator) RequireRole(required db.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				apperrors.Write(w, r, apperrors.Authentication("Could not validate credentials", errors.New("no identity in context")))
				return
			}

			if user.Role != required {
				a.logger.Warn("Authorization failed", map[string]interface{}{
					"email":         user.Email,
					"role":          string(user.Role),
					"required_role": string(required),
				})
				apperrors.Write(w, r, apperrors.Authorization(
					"Not enough permissions",
					fmt.Sprintf("This endpoint requires %s role", required),
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
