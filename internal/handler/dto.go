package handler

import (
	"time"

	"github.com/iliyamo/snapgram/internal/auth"
	"github.com/iliyamo/snapgram/internal/model"
)

type userResp struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	FullName          string    `json:"full_name,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toUser(u *model.User) userResp {
	return userResp{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FullName:          u.FullName,
		Bio:               u.Bio,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toUsers(us []*model.User) []userResp {
	out := make([]userResp, 0, len(us))
	for _, u := range us {
		out = append(out, toUser(u))
	}
	return out
}

type postResp struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	MediaType string    `json:"media_type,omitempty"`
	MediaURL  string    `json:"media_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPost(p *model.Post) postResp {
	return postResp{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		MediaType: p.MediaType,
		MediaURL:  p.MediaURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPosts(ps []*model.Post) []postResp {
	out := make([]postResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPost(p))
	}
	return out
}

type commentResp struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toComment(c *model.Comment) commentResp {
	return commentResp{
		ID:        c.ID,
		PostID:    c.PostID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toComments(list []*model.Comment) []commentResp {
	out := make([]commentResp, 0, len(list))
	for _, c := range list {
		out = append(out, toComment(c))
	}
	return out
}

type likeResp struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toLike(l *model.Like) likeResp {
	return likeResp{ID: l.ID, UserID: l.UserID, PostID: l.PostID, CreatedAt: l.CreatedAt}
}

// tokenResp is the body of every endpoint that signs a user in.
type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

func toTokens(p auth.TokenPair, now time.Time) tokenResp {
	return tokenResp{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    max(int64(p.AccessExpiresAt.Sub(now).Seconds()), 0),
	}
}
