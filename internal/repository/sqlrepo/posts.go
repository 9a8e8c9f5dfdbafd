package sqlrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
)

const postColumns = "id, user_id, content, media_type, media_url, created_at, updated_at"

// PostRepo reads and writes the posts table.
type PostRepo struct {
	q querier
}

func scanPost(s scanner) (*model.Post, error) {
	var (
		p                model.Post
		created, updated int64
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Content, &p.MediaType, &p.MediaURL, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	const q = "INSERT INTO posts (" + postColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, q, p.ID, p.UserID, p.Content, p.MediaType, p.MediaURL,
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt))
	if isDuplicate(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(r.q.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return p, err
}

func (r *PostRepo) List(ctx context.Context) ([]*model.Post, error) {
	return r.list(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at, id")
}

func (r *PostRepo) ListByUser(ctx context.Context, userID string) ([]*model.Post, error) {
	return r.list(ctx, "SELECT "+postColumns+" FROM posts WHERE user_id = ? ORDER BY created_at, id", userID)
}

func (r *PostRepo) list(ctx context.Context, q string, args ...any) ([]*model.Post, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostRepo) Update(ctx context.Context, p *model.Post) error {
	const q = "UPDATE posts SET content = ?, media_type = ?, media_url = ?, updated_at = ? WHERE id = ?"
	res, err := r.q.ExecContext(ctx, q, p.Content, p.MediaType, p.MediaURL, toMillis(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
