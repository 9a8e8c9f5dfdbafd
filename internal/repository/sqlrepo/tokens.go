package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/snapgram/internal/repository"
)

// RevokedTokenRepo is the black_listed_tokens table. Rows are keyed by the
// SHA-256 of the raw token; the raw token is kept alongside for audit.
type RevokedTokenRepo struct {
	q querier
}

func (r *RevokedTokenRepo) Revoke(ctx context.Context, token string, at time.Time) (bool, error) {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO black_listed_tokens (token_hash, token, black_listed_on) VALUES (?, ?, ?)",
		repository.TokenKey(token), token, toMillis(at))
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx, "SELECT 1 FROM black_listed_tokens WHERE token_hash = ?",
		repository.TokenKey(token)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResetTokenRepo records consumed password-reset tokens.
type ResetTokenRepo struct {
	q querier
}

func (r *ResetTokenRepo) Consume(ctx context.Context, jti, userID string, at time.Time) error {
	_, err := r.q.ExecContext(ctx, "INSERT INTO reset_tokens (jti, user_id, consumed_at) VALUES (?, ?, ?)",
		jti, userID, toMillis(at))
	if isDuplicate(err) {
		return repository.ErrConflict
	}
	return err
}
