package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/auth"
	"github.com/bikerly/api/internal/logging"
)

// UserHandlers serves profile endpoints for authenticated users.
type UserHandlers struct {
	logger *logging.Logger
}

// NewUserHandlers creates a new user handlers instance
func NewUserHandlers(logger *logging.Logger) *UserHandlers {
	return &UserHandlers{logger: logger}
}

// Me returns the caller's public profile. The identity was resolved by the
// auth middleware; the password hash is excluded by serialization.
func (h *UserHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apperrors.Write(w, r, apperrors.Authentication("Could not validate credentials", errors.New("no identity in context")))
		return
	}

	h.logger.Info("User profile accessed", map[string]interface{}{"email": user.Email})
	WriteJSON(w, http.StatusOK, user)
}

// AdminOnly is gated behind the admin role by RequireRole.
func (h *UserHandlers) AdminOnly(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		apperrors.Write(w, r, apperrors.Authentication("Could not validate credentials", errors.New("no identity in context")))
		return
	}

	h.logger.Info("Admin endpoint accessed", map[string]interface{}{"email": user.Email})
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Hello admin %s", user.Email),
	})
}
