package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so callers can
// classify failures with errors.Is without knowing the specific error.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	// ErrConsistency marks a cascade that could not be completed.
	ErrConsistency = errors.New("consistency hazard")
)

// Error is a domain error: a client-facing message plus its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Not found.
var (
	ErrUserNotFound     = newError(ErrNotFound, "user not found")
	ErrPostNotFound     = newError(ErrNotFound, "post not found")
	ErrCommentNotFound  = newError(ErrNotFound, "comment not found")
	ErrLikeNotFound     = newError(ErrNotFound, "like not found")
	ErrFolloweeNotFound = newError(ErrNotFound, "followee not found")
)

// Conflicts.
var (
	ErrEmailTaken    = newError(ErrConflict, "email already registered")
	ErrUsernameTaken = newError(ErrConflict, "username already registered")
	ErrAlreadyLiked  = newError(ErrConflict, "user has already liked this post")
)

// Authentication failures.
var (
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid email or password")
	ErrInvalidToken       = newError(ErrUnauthorized, "could not validate credentials")
	ErrRefreshExpired     = newError(ErrUnauthorized, "refresh token expired")
	ErrRefreshInvalid     = newError(ErrUnauthorized, "invalid refresh token")
	ErrResetTokenInvalid  = newError(ErrUnauthorized, "invalid or expired reset token")
)

// Validation failures.
var (
	ErrInvalidContent  = newError(ErrValidation, "post requires content or media_url")
	ErrEmptyComment    = newError(ErrValidation, "comment content is required")
	ErrSelfFollow      = newError(ErrValidation, "cannot follow yourself")
	ErrInvalidEmail    = newError(ErrValidation, "invalid email address")
	ErrInvalidUsername = newError(ErrValidation, "username is required")
	ErrWeakPassword    = newError(ErrValidation, "password must be at least 5 characters")
	ErrPasswordTooLong = newError(ErrValidation, "password must be at most 72 bytes")
)

// tooLong reports a field that exceeds its length limit.
func tooLong(field string, max int) *Error {
	return newError(ErrValidation, fmt.Sprintf("%s must be at most %d characters", field, max))
}

// ErrNotOwner is returned when the caller acts on a resource owned by
// someone else.
var ErrNotOwner = newError(ErrForbidden, "forbidden")
