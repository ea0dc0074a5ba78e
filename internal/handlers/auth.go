package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/auth"
	"github.com/bikerly/api/internal/db"
	"github.com/bikerly/api/internal/logging"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// AuthHandlers handles registration and login.
type AuthHandlers struct {
	store  db.Store
	tokens *auth.TokenManager
	logger *logging.Logger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(store db.Store, tokens *auth.TokenManager, logger *logging.Logger) *AuthHandlers {
	return &AuthHandlers{store: store, tokens: tokens, logger: logger}
}

// RegisterRequest is the request to register a new user
type RegisterRequest struct {
	Email       string  `json:"email"`
	UserName    string  `json:"user_name"`
	PhoneNumber string  `json:"phone_number"`
	CountryCode string  `json:"country_code"`
	Password    string  `json:"password"`
	DisplayName string  `json:"display_name"`
	Name        *string `json:"name,omitempty"`
}

// RegisterResponse returns the created user's public identifiers.
type RegisterResponse struct {
	ID          string  `json:"id"`
	UUID        string  `json:"uuid"`
	Email       string  `json:"email"`
	UserName    string  `json:"user_name"`
	DisplayName string  `json:"display_name"`
	Role        db.Role `json:"role"`
}

// TokenResponse is the login response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (req *RegisterRequest) validate() error {
	var missing []string
	for field, value := range map[string]string{
		"email":        req.Email,
		"user_name":    req.UserName,
		"phone_number": req.PhoneNumber,
		"country_code": req.CountryCode,
		"password":     req.Password,
		"display_name": req.DisplayName,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return apperrors.Validation("Missing required fields", strings.Join(missing, ", "))
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperrors.Validation("Invalid email address", "The email field must be a valid email address")
	}
	if utf8.RuneCountInString(req.DisplayName) > 50 {
		return apperrors.Validation("Invalid display name", "display_name must be at most 50 characters")
	}
	return nil
}

// Register registers a new user. New accounts start as active, unverified
// riders with a freshly generated UUID.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.Write(w, r, apperrors.Validation("Invalid request body", "Request body must be valid JSON"))
		return
	}

	if err := req.validate(); err != nil {
		apperrors.Write(w, r, err)
		return
	}

	h.logger.Info("Registration attempt", map[string]interface{}{"email": req.Email})

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.logger.Error("User lookup failed during registration", err, map[string]interface{}{"email": req.Email})
		apperrors.Write(w, r, apperrors.Database(
			"Failed to create user",
			"An error occurred while creating your account. Please try again later.",
			err,
		))
		return
	}
	if existing != nil {
		h.logger.Warn("Registration failed: email already exists", map[string]interface{}{"email": req.Email})
		apperrors.Write(w, r, apperrors.Conflict(
			"User with this email already exists",
			"A user with this email address is already registered",
		))
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Password hashing failed", err, map[string]interface{}{"email": req.Email})
		apperrors.Write(w, r, apperrors.Validation("Password processing failed", "The supplied password could not be processed"))
		return
	}

	user := &db.User{
		Email:        req.Email,
		UserName:     req.UserName,
		PhoneNumber:  req.PhoneNumber,
		CountryCode:  req.CountryCode,
		Name:         req.Name,
		DisplayName:  req.DisplayName,
		Role:         db.RoleRider,
		IsActive:     true,
		IsVerified:   false,
		PasswordHash: passwordHash,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		h.logger.Error("Failed to create user", err, map[string]interface{}{"email": req.Email})
		apperrors.Write(w, r, apperrors.Database(
			"Failed to create user",
			"An error occurred while creating your account. Please try again later.",
			err,
		))
		return
	}

	h.logger.Info("User registered successfully", map[string]interface{}{
		"email": user.Email,
		"id":    user.ID,
	})

	WriteJSON(w, http.StatusCreated, RegisterResponse{
		ID:          user.ID,
		UUID:        user.UUID,
		Email:       user.Email,
		UserName:    user.UserName,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	})
}

// Login authenticates a user from form-encoded credentials (username=email)
// and issues a bearer token. Unknown email and wrong password answer with
// the identical error so the endpoint cannot be used as an email-existence
// oracle; an inactive account is reported distinctly since the password
// check has already confirmed the caller owns it.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apperrors.Write(w, r, apperrors.Validation("Invalid request body", "Request body must be form-encoded"))
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		apperrors.Write(w, r, apperrors.Validation("Missing credentials", "username and password are required"))
		return
	}

	h.logger.Info("Login attempt", map[string]interface{}{"email": email})

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.logger.Warn("Login failed: user not found", map[string]interface{}{"email": email})
			apperrors.Write(w, r, apperrors.Authentication("Incorrect email or password", err))
			return
		}
		h.logger.Error("User lookup failed during login", err, map[string]interface{}{"email": email})
		apperrors.Write(w, r, apperrors.Database(
			"Login failed",
			"An error occurred during login. Please try again later.",
			err,
		))
		return
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		h.logger.Warn("Login failed: invalid password", map[string]interface{}{"email": email})
		apperrors.Write(w, r, apperrors.Authentication("Incorrect email or password", fmt.Errorf("password mismatch for %s", email)))
		return
	}

	if !user.IsActive {
		h.logger.Warn("Login failed: inactive user", map[string]interface{}{"email": email})
		apperrors.Write(w, r, apperrors.Authentication("Account is inactive", fmt.Errorf("account deactivated: %s", email)))
		return
	}

	token, err := h.tokens.Issue(user.Email, user.Role, user.UUID)
	if err != nil {
		h.logger.Error("Failed to issue token", err, map[string]interface{}{"email": email})
		apperrors.Write(w, r, err)
		return
	}

	h.logger.Info("User logged in successfully", map[string]interface{}{"email": email})

	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
