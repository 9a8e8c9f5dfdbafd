package model

import (
	"strings"
	"time"
)

// Comment is a text reply by a user on a post.
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateCommentContent rejects blank and over-long comment bodies.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyComment
	}
	return checkLength("content", content, MaxContentLength)
}

// Like records that UserID liked PostID. At most one Like exists per
// (UserID, PostID) pair.
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Follow is the edge record "FollowerID follows FolloweeID". One record
// represents both halves of the relationship: FollowerID's following set and
// FolloweeID's followers set.
type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

// RevokedToken is an append-only blacklist entry for a raw token string.
type RevokedToken struct {
	Token         string
	BlacklistedOn time.Time
}
