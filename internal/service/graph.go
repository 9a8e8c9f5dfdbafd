package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
	"github.com/iliyamo/snapgram/internal/telemetry"
)

// PostInput is a post creation request.
type PostInput struct {
	UserID    string
	Content   string
	MediaType string
	MediaURL  string
}

// CommentInput is a comment creation request.
type CommentInput struct {
	PostID  string
	UserID  string
	Content string
}

// GraphService keeps posts, comments, likes and follow edges consistent
// with the users they reference. Every multi-record change runs as one
// unit of work; relationship sets are derived from edge records, so there
// is no parent document to keep in sync.
type GraphService struct {
	store  repository.Store
	logger echo.Logger
	now    func() time.Time
}

// NewGraphService builds a GraphService on store.
func NewGraphService(store repository.Store, logger echo.Logger) *GraphService {
	return &GraphService{store: store, logger: logger, now: time.Now}
}

// cascade runs fn in a unit of work. An infrastructure failure is logged
// as a consistency hazard and fn is run once more; every cascade step is an
// idempotent delete. A second failure surfaces as model.ErrConsistency.
func (s *GraphService) cascade(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	if err == nil || isDomain(err) || ctx.Err() != nil {
		return err
	}
	s.logger.Errorf("consistency hazard: %s failed: %v; retrying", op, err)

	err = s.store.WithTx(ctx, fn)
	if err == nil || isDomain(err) {
		return err
	}
	s.logger.Errorf("consistency hazard: %s failed after retry: %v", op, err)
	return fmt.Errorf("%w: %s: %v", model.ErrConsistency, op, err)
}

func (s *GraphService) requireUser(ctx context.Context, users repository.Users, id string, missing error) error {
	_, err := users.GetByID(ctx, id)
	return notFound(err, missing)
}

func (s *GraphService) requirePost(ctx context.Context, posts repository.Posts, id string) (*model.Post, error) {
	p, err := posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.ErrPostNotFound)
	}
	return p, nil
}

// Users

// GetUser returns the user with id.
func (s *GraphService) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.ErrUserNotFound)
	}
	return u, nil
}

// ListUsers returns every user.
func (s *GraphService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.store.Users().List(ctx)
}

// DeleteUser removes the user and everything that references it: owned
// posts with their comments and likes, comments and likes the user left on
// other posts, and follow edges in both directions.
func (s *GraphService) DeleteUser(ctx context.Context, userID string) (err error) {
	ctx, span := tracer.Start(ctx, "graph.DeleteUser")
	defer func() { telemetry.End(span, err) }()

	var removedPosts int
	err = s.cascade(ctx, "delete user "+userID, func(ctx context.Context, tx repository.Tx) error {
		if err := s.requireUser(ctx, tx.Users(), userID, model.ErrUserNotFound); err != nil {
			return err
		}
		posts, err := tx.Posts().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range posts {
			if err := deletePostRecords(ctx, tx, p.ID); err != nil {
				return fmt.Errorf("post %s: %w", p.ID, err)
			}
		}
		removedPosts = len(posts)
		if _, err := tx.Comments().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("comments: %w", err)
		}
		if _, err := tx.Likes().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("likes: %w", err)
		}
		if _, err := tx.Follows().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("follows: %w", err)
		}
		return notFound(tx.Users().Delete(ctx, userID), model.ErrUserNotFound)
	})
	if err != nil {
		return err
	}
	s.logger.Infof("user deleted: id=%s posts=%d", userID, removedPosts)
	return nil
}

// Follow records followerID -> followeeID. Following someone twice is a
// no-op that leaves the original edge in place.
func (s *GraphService) Follow(ctx context.Context, followerID, followeeID string) (err error) {
	ctx, span := tracer.Start(ctx, "graph.Follow")
	defer func() { telemetry.End(span, err) }()

	if followerID == followeeID {
		return model.ErrSelfFollow
	}
	if err := s.requireUser(ctx, s.store.Users(), followerID, model.ErrUserNotFound); err != nil {
		return err
	}
	if err := s.requireUser(ctx, s.store.Users(), followeeID, model.ErrFolloweeNotFound); err != nil {
		return err
	}
	exists, err := s.store.Follows().Exists(ctx, followerID, followeeID)
	if err != nil || exists {
		return err
	}
	return s.store.Follows().Create(ctx, &model.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.now().UTC(),
	})
}

// Unfollow removes the edge. A missing edge is not an error.
func (s *GraphService) Unfollow(ctx context.Context, followerID, followeeID string) (err error) {
	ctx, span := tracer.Start(ctx, "graph.Unfollow")
	defer func() { telemetry.End(span, err) }()

	if err := s.requireUser(ctx, s.store.Users(), followeeID, model.ErrFolloweeNotFound); err != nil {
		return err
	}
	_, err = s.store.Follows().Delete(ctx, followerID, followeeID)
	return err
}

// Followers lists the users following userID.
func (s *GraphService) Followers(ctx context.Context, userID string) ([]*model.User, error) {
	if err := s.requireUser(ctx, s.store.Users(), userID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	ids, err := s.store.Follows().FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Users().ListByIDs(ctx, ids)
}

// Following lists the users userID follows.
func (s *GraphService) Following(ctx context.Context, userID string) ([]*model.User, error) {
	if err := s.requireUser(ctx, s.store.Users(), userID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	ids, err := s.store.Follows().FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Users().ListByIDs(ctx, ids)
}

// Posts

// CreatePost validates the content/media invariant before anything is
// written.
func (s *GraphService) CreatePost(ctx context.Context, in PostInput) (p *model.Post, err error) {
	ctx, span := tracer.Start(ctx, "graph.CreatePost")
	defer func() { telemetry.End(span, err) }()

	now := s.now().UTC()
	p = &model.Post{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Content:   in.Content,
		MediaType: in.MediaType,
		MediaURL:  in.MediaURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, s.store.Users(), in.UserID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	if err := s.store.Posts().Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost returns the post with id.
func (s *GraphService) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return s.requirePost(ctx, s.store.Posts(), id)
}

// ListPosts returns every post, oldest first.
func (s *GraphService) ListPosts(ctx context.Context) ([]*model.Post, error) {
	return s.store.Posts().List(ctx)
}

// ListUserPosts is the authored-post set of userID.
func (s *GraphService) ListUserPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	if err := s.requireUser(ctx, s.store.Users(), userID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return s.store.Posts().ListByUser(ctx, userID)
}

// UpdatePost merges patch and re-checks the content/media invariant on the
// result.
func (s *GraphService) UpdatePost(ctx context.Context, id string, patch model.PostPatch) (p *model.Post, err error) {
	ctx, span := tracer.Start(ctx, "graph.UpdatePost")
	defer func() { telemetry.End(span, err) }()

	p, err = s.requirePost(ctx, s.store.Posts(), id)
	if err != nil {
		return nil, err
	}
	p.Apply(patch)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Posts().Update(ctx, p); err != nil {
		return nil, notFound(err, model.ErrPostNotFound)
	}
	return p, nil
}

// DeletePost removes the post's comments, then its likes, then the post.
func (s *GraphService) DeletePost(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "graph.DeletePost")
	defer func() { telemetry.End(span, err) }()

	return s.cascade(ctx, "delete post "+id, func(ctx context.Context, tx repository.Tx) error {
		if _, err := s.requirePost(ctx, tx.Posts(), id); err != nil {
			return err
		}
		return deletePostRecords(ctx, tx, id)
	})
}

func deletePostRecords(ctx context.Context, tx repository.Tx, postID string) error {
	if _, err := tx.Comments().DeleteByPost(ctx, postID); err != nil {
		return fmt.Errorf("comments: %w", err)
	}
	if _, err := tx.Likes().DeleteByPost(ctx, postID); err != nil {
		return fmt.Errorf("likes: %w", err)
	}
	return notFound(tx.Posts().Delete(ctx, postID), model.ErrPostNotFound)
}

// Comments

// AddComment attaches a comment by in.UserID to in.PostID.
func (s *GraphService) AddComment(ctx context.Context, in CommentInput) (c *model.Comment, err error) {
	ctx, span := tracer.Start(ctx, "graph.AddComment")
	defer func() { telemetry.End(span, err) }()

	if err := model.ValidateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if _, err := s.requirePost(ctx, s.store.Posts(), in.PostID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, s.store.Users(), in.UserID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c = &model.Comment{
		ID:        uuid.NewString(),
		PostID:    in.PostID,
		UserID:    in.UserID,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Comments().Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComment returns the comment with id.
func (s *GraphService) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	c, err := s.store.Comments().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.ErrCommentNotFound)
	}
	return c, nil
}

// ListAllComments returns every comment, oldest first.
func (s *GraphService) ListAllComments(ctx context.Context) ([]*model.Comment, error) {
	return s.store.Comments().List(ctx)
}

// ListComments is the comment set of postID.
func (s *GraphService) ListComments(ctx context.Context, postID string) ([]*model.Comment, error) {
	if _, err := s.requirePost(ctx, s.store.Posts(), postID); err != nil {
		return nil, err
	}
	return s.store.Comments().ListByPost(ctx, postID)
}

// UpdateComment replaces the body of a comment.
func (s *GraphService) UpdateComment(ctx context.Context, id, content string) (*model.Comment, error) {
	if err := model.ValidateCommentContent(content); err != nil {
		return nil, err
	}
	c, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Content = content
	c.UpdatedAt = s.now().UTC()
	if err := s.store.Comments().Update(ctx, c); err != nil {
		return nil, notFound(err, model.ErrCommentNotFound)
	}
	return c, nil
}

// DeleteComment removes a comment by id.
func (s *GraphService) DeleteComment(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "graph.DeleteComment")
	defer func() { telemetry.End(span, err) }()

	c, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.requirePost(ctx, s.store.Posts(), c.PostID); err != nil {
		return err
	}
	return notFound(s.store.Comments().Delete(ctx, id), model.ErrCommentNotFound)
}

// Likes

// AddLike records that userID likes postID. The pair is unique: a repeat
// like, including one racing past the pre-check, is model.ErrAlreadyLiked.
func (s *GraphService) AddLike(ctx context.Context, userID, postID string) (l *model.Like, err error) {
	ctx, span := tracer.Start(ctx, "graph.AddLike")
	defer func() { telemetry.End(span, err) }()

	if _, err := s.requirePost(ctx, s.store.Posts(), postID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, s.store.Users(), userID, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	_, err = s.store.Likes().GetByUserAndPost(ctx, userID, postID)
	switch {
	case err == nil:
		return nil, model.ErrAlreadyLiked
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	now := s.now().UTC()
	l = &model.Like{ID: uuid.NewString(), UserID: userID, PostID: postID, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Likes().Create(ctx, l); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.ErrAlreadyLiked
		}
		return nil, err
	}
	return l, nil
}

// GetLike returns the like with id.
func (s *GraphService) GetLike(ctx context.Context, id string) (*model.Like, error) {
	l, err := s.store.Likes().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, model.ErrLikeNotFound)
	}
	return l, nil
}

// RemoveLike deletes a like by id.
func (s *GraphService) RemoveLike(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "graph.RemoveLike")
	defer func() { telemetry.End(span, err) }()

	l, err := s.GetLike(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.requirePost(ctx, s.store.Posts(), l.PostID); err != nil {
		return err
	}
	return notFound(s.store.Likes().Delete(ctx, id), model.ErrLikeNotFound)
}

// ListLikes is the like set of postID.
func (s *GraphService) ListLikes(ctx context.Context, postID string) ([]*model.Like, error) {
	if _, err := s.requirePost(ctx, s.store.Posts(), postID); err != nil {
		return nil, err
	}
	return s.store.Likes().ListByPost(ctx, postID)
}
