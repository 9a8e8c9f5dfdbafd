package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// User represents an account record as stored in the `users` collection.
// Posts, followers and following are not embedded: they are derived from the
// posts and follows collections so a user record never grows with activity.
//
// Fields:
//
//	ID                – globally unique identifier (UUID string).
//	Email             – unique, normalised (trimmed, lower-cased) email.
//	Username          – unique handle.
//	PasswordHash      – bcrypt hash; the plaintext is never stored.
//	FullName, Bio, ProfilePictureURL – optional profile fields.
//	CreatedAt / UpdatedAt – UTC timestamps.
type User struct {
	ID                string
	Email             string
	Username          string
	PasswordHash      string
	FullName          string
	Bio               string
	ProfilePictureURL string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Email             *string
	Username          *string
	Password          *string
	FullName          *string
	Bio               *string
	ProfilePictureURL *string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Field length limits, in characters. Every backend stores at least this
// much; the MySQL columns are sized to match.
const (
	MaxEmailLength      = 255
	MaxUsernameLength   = 64
	MaxFullNameLength   = 255
	MaxBioLength        = 1024
	MaxPictureURLLength = 1024
	MaxContentLength    = 16000
	MaxMediaTypeLength  = 64
	MaxMediaURLLength   = 2048
)

func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return tooLong(field, max)
	}
	return nil
}

// ValidateEmail performs the minimal structural check the API relies on.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidEmail
	}
	return checkLength("email", email, MaxEmailLength)
}

// ValidateUsername rejects blank and over-long usernames.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	return checkLength("username", username, MaxUsernameLength)
}

// ValidateProfile checks the optional profile fields of u.
func (u *User) ValidateProfile() error {
	if err := checkLength("full_name", u.FullName, MaxFullNameLength); err != nil {
		return err
	}
	if err := checkLength("bio", u.Bio, MaxBioLength); err != nil {
		return err
	}
	return checkLength("profile_picture_url", u.ProfilePictureURL, MaxPictureURLLength)
}

// Password length bounds accepted at registration, profile update and
// password reset. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 5
	MaxPasswordLength = 72
)

// ValidatePassword enforces the password length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ApplyProfile merges the profile fields of p into u. Identity fields
// (email, username, password) are handled by the caller because they need
// uniqueness checks and hashing.
func (u *User) ApplyProfile(p UserPatch) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = *p.ProfilePictureURL
	}
}
