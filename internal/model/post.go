package model

import (
	"strings"
	"time"
)

// Post is a piece of content owned by a user. At least one of Content and
// MediaURL must be non-blank for the post to be valid.
type Post struct {
	ID        string
	UserID    string
	Content   string
	MediaType string
	MediaURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostPatch carries a partial post update. Nil fields are left untouched.
type PostPatch struct {
	Content   *string
	MediaType *string
	MediaURL  *string
}

// Validate checks the content/media invariant and the field length limits.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Content) == "" && strings.TrimSpace(p.MediaURL) == "" {
		return ErrInvalidContent
	}
	if err := checkLength("content", p.Content, MaxContentLength); err != nil {
		return err
	}
	if err := checkLength("media_type", p.MediaType, MaxMediaTypeLength); err != nil {
		return err
	}
	return checkLength("media_url", p.MediaURL, MaxMediaURLLength)
}

// Apply merges patch into p. It does not validate; call Validate on the
// merged result.
func (p *Post) Apply(patch PostPatch) {
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.MediaType != nil {
		p.MediaType = *patch.MediaType
	}
	if patch.MediaURL != nil {
		p.MediaURL = *patch.MediaURL
	}
}
