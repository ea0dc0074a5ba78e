package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bikerly/api/internal/apperrors"
	"github.com/bikerly/api/internal/db"
)

// Claims is the session token claim set. Subject carries the user's email.
type Claims struct {
	Role string `json:"role"`
	UUID string `json:"uuid"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed, time-bound session tokens.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewTokenManager creates a token manager. algorithm must be one of HS256,
// HS384 or HS512.
func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}

	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue creates a signed token for the given identity. The expiry is the
// issue instant plus the configured lifetime.
func (m *TokenManager) Issue(email string, role db.Role, userUUID string) (string, error) {
	now := m.now()
	claims := &Claims{
		Role: string(role),
		UUID: userUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(m.method, claims)
	return token.SignedString(m.secret)
}

// Verify decodes the token and checks signature and expiry. Every failure
// mode — bad signature, malformed structure, expiry, missing subject —
// surfaces as the same authentication error so callers cannot distinguish a
// forged token from an expired one. The underlying cause is wrapped for
// internal logging.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, apperrors.Authentication("Could not validate credentials", err)
	}
	if !token.Valid {
		return nil, apperrors.Authentication("Could not validate credentials", fmt.Errorf("invalid token"))
	}
	if claims.Subject == "" {
		return nil, apperrors.Authentication("Could not validate credentials", fmt.Errorf("token missing subject claim"))
	}

	return claims, nil
}
