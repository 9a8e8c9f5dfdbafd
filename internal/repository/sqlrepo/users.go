package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
)

const userColumns = "id, email, username, password_hash, full_name, bio, profile_picture_url, created_at, updated_at"

// UserRepo reads and writes the users table.
type UserRepo struct {
	q querier
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u                model.User
		created, updated int64
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.Bio,
		&u.ProfilePictureURL, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return &u, nil
}

// userConflict maps a unique key violation on users to the matching
// sentinel. MySQL names the key (uq_users_email), SQLite the column
// (users.email).
func userConflict(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "uq_users_email"), strings.Contains(msg, "users.email"):
		return repository.ErrEmailExists
	case strings.Contains(msg, "uq_users_username"), strings.Contains(msg, "users.username"):
		return repository.ErrUsernameExists
	}
	return repository.ErrConflict
}

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, q, u.ID, u.Email, u.Username, u.PasswordHash, u.FullName, u.Bio,
		u.ProfilePictureURL, toMillis(u.CreatedAt), toMillis(u.UpdatedAt))
	if isDuplicate(err) {
		return userConflict(err)
	}
	return err
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*model.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"
	u, err := scanUser(r.q.QueryRowContext(ctx, q, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT " + userColumns + " FROM users WHERE id IN (" + placeholders(len(ids)) + ") ORDER BY created_at, id"
	return r.list(ctx, q, args...)
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	return r.list(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
}

func (r *UserRepo) list(ctx context.Context, q string, args ...any) ([]*model.User, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	const q = `UPDATE users SET email = ?, username = ?, password_hash = ?, full_name = ?, bio = ?,
	           profile_picture_url = ?, updated_at = ? WHERE id = ?`
	res, err := r.q.ExecContext(ctx, q, u.Email, u.Username, u.PasswordHash, u.FullName, u.Bio,
		u.ProfilePictureURL, toMillis(u.UpdatedAt), u.ID)
	if isDuplicate(err) {
		return userConflict(err)
	}
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		hash, toMillis(at), id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}
