package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors. Every error crossing the HTTP
// boundary carries exactly one kind; the kind alone determines the status
// code and machine-readable error code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindRateLimit
	KindDatabase
)

// Error is the application error type. Message and Detail are safe to show
// to callers; the wrapped Err is for internal logs only.
type Error struct {
	Kind    Kind
	Message string
	Detail  string

	// RetryAfter is set for rate-limit errors, in seconds.
	RetryAfter int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable error code.
func (e *Error) Code() string {
	switch e.Kind {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuthentication:
		return "AUTHENTICATION_ERROR"
	case KindAuthorization:
		return "AUTHORIZATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT_ERROR"
	case KindRateLimit:
		return "RATE_LIMIT_ERROR"
	case KindDatabase:
		return "DATABASE_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// Validation reports malformed input or a policy violation.
func Validation(message, detail string) *Error {
	return &Error{Kind: KindValidation, Message: message, Detail: detail}
}

// Authentication reports a failed credential or token check. The message is
// intentionally generic; wrap the true cause so logs can tell sub-causes
// apart while callers cannot.
func Authentication(message string, cause error) *Error {
	return &Error{
		Kind:    KindAuthentication,
		Message: message,
		Detail:  "Invalid credentials provided",
		Err:     cause,
	}
}

// Authorization reports an authenticated caller with insufficient role.
func Authorization(message, detail string) *Error {
	return &Error{Kind: KindAuthorization, Message: message, Detail: detail}
}

// Conflict reports a duplicate unique key.
func Conflict(message, detail string) *Error {
	return &Error{Kind: KindConflict, Message: message, Detail: detail}
}

// RateLimit reports an exceeded request budget.
func RateLimit(retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimit,
		Message:    "Rate limit exceeded",
		Detail:     fmt.Sprintf("Too many requests. Please try again after %d seconds.", retryAfter),
		RetryAfter: retryAfter,
	}
}

// Database wraps an unexpected persistence failure. The cause is logged but
// never exposed to the caller.
func Database(message, detail string, cause error) *Error {
	return &Error{Kind: KindDatabase, Message: message, Detail: detail, Err: cause}
}

// From converts any error to an *Error, collapsing unknown errors into a
// generic internal error so raw failure messages never reach callers.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{
		Kind:    KindInternal,
		Message: "Internal server error",
		Detail:  "An unexpected error occurred",
		Err:     err,
	}
}
