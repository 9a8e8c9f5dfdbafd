// Package sqlrepo implements the repository contract on database/sql. The
// same queries run on MySQL and SQLite: placeholders are '?', ids are UUID
// strings and timestamps are stored as unix milliseconds.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/iliyamo/snapgram/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	users    *UserRepo
	posts    *PostRepo
	comments *CommentRepo
	likes    *LikeRepo
	follows  *FollowRepo
	revoked  *RevokedTokenRepo
	resets   *ResetTokenRepo
}

func newRepos(q querier) repos {
	return repos{
		users:    &UserRepo{q: q},
		posts:    &PostRepo{q: q},
		comments: &CommentRepo{q: q},
		likes:    &LikeRepo{q: q},
		follows:  &FollowRepo{q: q},
		revoked:  &RevokedTokenRepo{q: q},
		resets:   &ResetTokenRepo{q: q},
	}
}

func (r repos) Users() repository.Users                 { return r.users }
func (r repos) Posts() repository.Posts                 { return r.posts }
func (r repos) Comments() repository.Comments           { return r.comments }
func (r repos) Likes() repository.Likes                 { return r.likes }
func (r repos) Follows() repository.Follows             { return r.follows }
func (r repos) RevokedTokens() repository.RevokedTokens { return r.revoked }
func (r repos) ResetTokens() repository.ResetTokens     { return r.resets }

// Store is a repository.Store backed by a *sql.DB.
type Store struct {
	repos
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

// New wraps db. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{repos: newRepos(db), db: db}
}

// WithTx runs fn inside a database transaction. The transaction is rolled
// back when fn returns an error or panics and committed otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(ctx, newRepos(tx))
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the underlying pool.
func (s *Store) Close() error { return s.db.Close() }

// isDuplicate reports whether err is a unique or primary key violation on
// either supported driver.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}

type scanner interface {
	Scan(dest ...any) error
}
