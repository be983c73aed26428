// Package apperr defines the domain error kinds returned by the service
// layer. Services wrap these sentinels; the HTTP boundary maps each kind to
// a status code exactly once, via Status. Responses never carry internal
// detail beyond the sentinel's own message.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or malformed token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrRevokedToken       = errors.New("token has been revoked")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrInactiveUser       = errors.New("user account is inactive")
	ErrOwnershipRequired  = errors.New("you don't have permission to access this resource")
	ErrAdminRequired      = errors.New("admin access required")
	ErrModeratorRequired  = errors.New("moderator access required")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateReview    = errors.New("you have already reviewed this book")
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)

var statuses = []struct {
	kind error
	code int
}{
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrTokenExpired, http.StatusUnauthorized},
	{ErrRevokedToken, http.StatusUnauthorized},
	{ErrEmailNotVerified, http.StatusForbidden},
	{ErrOwnershipRequired, http.StatusForbidden},
	{ErrAdminRequired, http.StatusForbidden},
	{ErrModeratorRequired, http.StatusForbidden},
	{ErrInactiveUser, http.StatusBadRequest},
	{ErrDuplicateEmail, http.StatusBadRequest},
	{ErrDuplicateUsername, http.StatusBadRequest},
	{ErrDuplicateReview, http.StatusBadRequest},
	{ErrValidation, http.StatusUnprocessableEntity},
	{ErrUserNotFound, http.StatusNotFound},
	{ErrBookNotFound, http.StatusNotFound},
	{ErrReviewNotFound, http.StatusNotFound},
	{ErrServiceUnavailable, http.StatusServiceUnavailable},
}

// Status resolves an error to its HTTP status code. Unknown errors are
// internal server errors.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

// Message returns the user-visible message for an error. Unknown errors get
// a generic message so internals never leak to clients.
func Message(err error) string {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.kind.Error()
		}
	}
	return "internal server error"
}
