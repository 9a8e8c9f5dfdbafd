package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/iliyamo/snapgram/internal/model"
)

// Users persists user records. Email and username are unique keys.
type Users interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// ListByIDs returns the users with the given ids; unknown ids are skipped.
	ListByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	// Update replaces the stored record with u (full-document save).
	Update(ctx context.Context, u *model.User) error
	// UpdatePassword sets only the password hash and updated_at.
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Posts persists posts. ListByUser is the authored-post set of a user.
type Posts interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context) ([]*model.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id string) error
}

// Comments persists comments. ListByPost is the comment set of a post.
type Comments interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	List(ctx context.Context) ([]*model.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)
	Update(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, id string) error
	// DeleteByPost removes every comment on postID and reports how many.
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	// DeleteByUser removes every comment authored by userID.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Likes persists likes. (UserID, PostID) is a unique key; Create returns
// ErrConflict when it is violated.
type Likes interface {
	Create(ctx context.Context, l *model.Like) error
	GetByID(ctx context.Context, id string) (*model.Like, error)
	GetByUserAndPost(ctx context.Context, userID, postID string) (*model.Like, error)
	ListByPost(ctx context.Context, postID string) ([]*model.Like, error)
	Delete(ctx context.Context, id string) error
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Follows persists follow edges keyed by (follower, followee).
type Follows interface {
	// Create inserts the edge; an existing edge is left as is.
	Create(ctx context.Context, f *model.Follow) error
	// Delete removes the edge and reports whether it existed.
	Delete(ctx context.Context, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	// FollowerIDs lists the users following userID.
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	// FollowingIDs lists the users userID follows.
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	// DeleteByUser removes every edge touching userID in either direction.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// RevokedTokens is the append-only token blacklist.
type RevokedTokens interface {
	// Revoke records token and reports whether this call inserted the
	// record. Revoking an already revoked token is a no-op that returns false.
	Revoke(ctx context.Context, token string, at time.Time) (bool, error)
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ResetTokens records consumed password-reset tokens by their jti.
type ResetTokens interface {
	// Consume marks jti as used. It returns ErrConflict when jti was
	// already consumed.
	Consume(ctx context.Context, jti, userID string, at time.Time) error
}

// Tx groups the repositories bound to one unit of work.
type Tx interface {
	Users() Users
	Posts() Posts
	Comments() Comments
	Likes() Likes
	Follows() Follows
	RevokedTokens() RevokedTokens
	ResetTokens() ResetTokens
}

// Store is the persistent store. Outside WithTx every repository call is its
// own atomic single-record operation.
type Store interface {
	Tx
	// WithTx runs fn as one unit of work. The ctx handed to fn must be used
	// for every call made through tx. When fn returns an error nothing it
	// wrote is kept, provided the backend supports transactions.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// TokenKey returns the hex SHA-256 digest of a raw token. Backends index
// revoked tokens by this key so lookups never depend on token length.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
