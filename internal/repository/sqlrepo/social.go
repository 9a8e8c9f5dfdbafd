package sqlrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
)

// CommentRepo reads and writes the comments table.
type CommentRepo struct {
	q querier
}

const commentColumns = "id, post_id, user_id, content, created_at, updated_at"

func scanComment(s scanner) (*model.Comment, error) {
	var (
		c                model.Comment
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return &c, nil
}

func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	const q = "INSERT INTO comments (" + commentColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, q, c.ID, c.PostID, c.UserID, c.Content,
		toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if isDuplicate(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *CommentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	c, err := scanComment(r.q.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return c, err
}

func (r *CommentRepo) List(ctx context.Context) ([]*model.Comment, error) {
	return r.list(ctx, "SELECT "+commentColumns+" FROM comments ORDER BY created_at, id")
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID string) ([]*model.Comment, error) {
	return r.list(ctx, "SELECT "+commentColumns+" FROM comments WHERE post_id = ? ORDER BY created_at, id", postID)
}

func (r *CommentRepo) list(ctx context.Context, query string, args ...any) ([]*model.Comment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepo) Update(ctx context.Context, c *model.Comment) error {
	res, err := r.q.ExecContext(ctx, "UPDATE comments SET content = ?, updated_at = ? WHERE id = ?",
		c.Content, toMillis(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *CommentRepo) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	return execCount(ctx, r.q, "DELETE FROM comments WHERE post_id = ?", postID)
}

func (r *CommentRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return execCount(ctx, r.q, "DELETE FROM comments WHERE user_id = ?", userID)
}

// LikeRepo reads and writes the likes table.
type LikeRepo struct {
	q querier
}

const likeColumns = "id, user_id, post_id, created_at, updated_at"

func scanLike(s scanner) (*model.Like, error) {
	var (
		l                model.Like
		created, updated int64
	)
	if err := s.Scan(&l.ID, &l.UserID, &l.PostID, &created, &updated); err != nil {
		return nil, err
	}
	l.CreatedAt = fromMillis(created)
	l.UpdatedAt = fromMillis(updated)
	return &l, nil
}

// Create inserts l. A second like for the same (user, post) pair fails
// with ErrConflict.
func (r *LikeRepo) Create(ctx context.Context, l *model.Like) error {
	const q = "INSERT INTO likes (" + likeColumns + ") VALUES (?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, q, l.ID, l.UserID, l.PostID, toMillis(l.CreatedAt), toMillis(l.UpdatedAt))
	if isDuplicate(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *LikeRepo) GetByID(ctx context.Context, id string) (*model.Like, error) {
	l, err := scanLike(r.q.QueryRowContext(ctx, "SELECT "+likeColumns+" FROM likes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return l, err
}

func (r *LikeRepo) GetByUserAndPost(ctx context.Context, userID, postID string) (*model.Like, error) {
	l, err := scanLike(r.q.QueryRowContext(ctx,
		"SELECT "+likeColumns+" FROM likes WHERE user_id = ? AND post_id = ?", userID, postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return l, err
}

func (r *LikeRepo) ListByPost(ctx context.Context, postID string) ([]*model.Like, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+likeColumns+" FROM likes WHERE post_id = ? ORDER BY created_at, id", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Like{}
	for rows.Next() {
		l, err := scanLike(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LikeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM likes WHERE id = ?", id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *LikeRepo) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	return execCount(ctx, r.q, "DELETE FROM likes WHERE post_id = ?", postID)
}

func (r *LikeRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return execCount(ctx, r.q, "DELETE FROM likes WHERE user_id = ?", userID)
}

// FollowRepo reads and writes the follows edge table.
type FollowRepo struct {
	q querier
}

// Create inserts the edge. Re-inserting an existing edge succeeds.
func (r *FollowRepo) Create(ctx context.Context, f *model.Follow) error {
	_, err := r.q.ExecContext(ctx, "INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)",
		f.FollowerID, f.FolloweeID, toMillis(f.CreatedAt))
	if isDuplicate(err) {
		return nil
	}
	return err
}

func (r *FollowRepo) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	n, err := execCount(ctx, r.q, "DELETE FROM follows WHERE follower_id = ? AND followee_id = ?",
		followerID, followeeID)
	return n > 0, err
}

func (r *FollowRepo) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, "SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?",
		followerID, followeeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *FollowRepo) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created_at, follower_id", userID)
}

func (r *FollowRepo) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created_at, followee_id", userID)
}

func (r *FollowRepo) ids(ctx context.Context, q string, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *FollowRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return execCount(ctx, r.q, "DELETE FROM follows WHERE follower_id = ? OR followee_id = ?", userID, userID)
}

func execCount(ctx context.Context, q querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
