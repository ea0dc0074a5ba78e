package auth

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashing.
const bcryptCost = 12

// maxPasswordBytes is bcrypt's effective input limit. Inputs longer than
// this are truncated, so two passwords identical in their first 72 encoded
// bytes hash the same. This is a known, intentional lossy behavior inherited
// from the bcrypt algorithm itself, not something to silently work around.
const maxPasswordBytes = 72

// ErrEmptyPassword is returned when an empty password is hashed.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes a password with bcrypt. A fresh random salt is
// generated on every call, so hashing the same password twice yields two
// different digests.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored digest. It
// never errors: malformed digests simply verify false.
func VerifyPassword(password, digest string) bool {
	if password == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), truncatePassword(password))
	return err == nil
}

// truncatePassword caps the UTF-8 encoded password at 72 bytes without
// splitting a multi-byte rune: a rune straddling the boundary is dropped
// entirely.
func truncatePassword(password string) []byte {
	raw := []byte(password)
	if len(raw) <= maxPasswordBytes {
		return raw
	}

	cut := maxPasswordBytes
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut]
}
