package mongorepo

import (
	"time"

	"github.com/iliyamo/snapgram/internal/model"
)

type userDoc struct {
	ID                string    `bson:"_id"`
	Email             string    `bson:"email"`
	Username          string    `bson:"username"`
	PasswordHash      string    `bson:"password_hash"`
	FullName          string    `bson:"full_name"`
	Bio               string    `bson:"bio"`
	ProfilePictureURL string    `bson:"profile_picture_url"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID: u.ID, Email: u.Email, Username: u.Username, PasswordHash: u.PasswordHash,
		FullName: u.FullName, Bio: u.Bio, ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt: u.CreatedAt.UTC(), UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func (d *userDoc) model() *model.User {
	return &model.User{
		ID: d.ID, Email: d.Email, Username: d.Username, PasswordHash: d.PasswordHash,
		FullName: d.FullName, Bio: d.Bio, ProfilePictureURL: d.ProfilePictureURL,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type postDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Content   string    `bson:"content"`
	MediaType string    `bson:"media_type"`
	MediaURL  string    `bson:"media_url"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toPostDoc(p *model.Post) postDoc {
	return postDoc{
		ID: p.ID, UserID: p.UserID, Content: p.Content, MediaType: p.MediaType, MediaURL: p.MediaURL,
		CreatedAt: p.CreatedAt.UTC(), UpdatedAt: p.UpdatedAt.UTC(),
	}
}

func (d *postDoc) model() *model.Post {
	return &model.Post{
		ID: d.ID, UserID: d.UserID, Content: d.Content, MediaType: d.MediaType, MediaURL: d.MediaURL,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type commentDoc struct {
	ID        string    `bson:"_id"`
	PostID    string    `bson:"post_id"`
	UserID    string    `bson:"user_id"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *commentDoc) model() *model.Comment {
	return &model.Comment{
		ID: d.ID, PostID: d.PostID, UserID: d.UserID, Content: d.Content,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type likeDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	PostID    string    `bson:"post_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *likeDoc) model() *model.Like {
	return &model.Like{
		ID: d.ID, UserID: d.UserID, PostID: d.PostID,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type followDoc struct {
	FollowerID string    `bson:"follower_id"`
	FolloweeID string    `bson:"followee_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

type revokedDoc struct {
	Key           string    `bson:"_id"`
	Token         string    `bson:"token"`
	BlacklistedOn time.Time `bson:"black_listed_on"`
}

type resetDoc struct {
	JTI        string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	ConsumedAt time.Time `bson:"consumed_at"`
}
