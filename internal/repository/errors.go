// Package repository defines the persistence contract shared by the SQL and
// MongoDB backends, together with the sentinel errors both of them return.
// These sentinel values allow the service layer to distinguish "no such
// record" from "a unique key already holds this value" without knowing which
// backend produced the error.
package repository

import "errors"

// ErrNotFound is returned when a lookup, update or delete by key matches no
// record.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a unique key other than
// the user email/username keys, e.g. a second like for the same
// (user, post) pair or a reset token that was already consumed.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user insert or update collides with the
// unique email key.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when a user insert or update collides with
// the unique username key.
var ErrUsernameExists = errors.New("username already exists")
