package auth

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/snapgram/internal/repository"
)

// Registry is the revocation registry. Records live in the store; an
// optional Redis cache remembers positive answers.
type Registry struct {
	store    repository.RevokedTokens
	cache    *redis.Client
	cacheTTL time.Duration
	logger   echo.Logger
	now      func() time.Time
}

// NewRegistry builds a Registry on store. rdb may be nil.
func NewRegistry(store repository.RevokedTokens, rdb *redis.Client, cacheTTL time.Duration, logger echo.Logger) *Registry {
	return &Registry{store: store, cache: rdb, cacheTTL: cacheTTL, logger: logger, now: time.Now}
}

func cacheKey(raw string) string { return "revoked:" + repository.TokenKey(raw) }

// ErrAlreadyRevoked is returned by Redeem when raw was revoked before the
// call.
var ErrAlreadyRevoked = errors.New("token already revoked")

// Revoke blacklists raw. Revoking twice is not an error.
func (r *Registry) Revoke(ctx context.Context, raw string) error {
	if _, err := r.store.Revoke(ctx, raw, r.now().UTC()); err != nil {
		return err
	}
	r.remember(ctx, raw)
	return nil
}

// Redeem blacklists raw and fails with ErrAlreadyRevoked unless this call
// was the one that recorded it. Of several concurrent callers holding the
// same token at most one succeeds.
func (r *Registry) Redeem(ctx context.Context, raw string) error {
	inserted, err := r.store.Revoke(ctx, raw, r.now().UTC())
	if err != nil {
		return err
	}
	r.remember(ctx, raw)
	if !inserted {
		return ErrAlreadyRevoked
	}
	return nil
}

// IsRevoked reports whether raw was blacklisted. Cache failures fall
// through to the store.
func (r *Registry) IsRevoked(ctx context.Context, raw string) (bool, error) {
	if r.cache != nil {
		n, err := r.cache.Exists(ctx, cacheKey(raw)).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		if err != nil && r.logger != nil {
			r.logger.Warnf("revocation cache lookup failed: %v", err)
		}
	}
	revoked, err := r.store.IsRevoked(ctx, raw)
	if err != nil {
		return false, err
	}
	if revoked {
		r.remember(ctx, raw)
	}
	return revoked, nil
}

func (r *Registry) remember(ctx context.Context, raw string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(raw), 1, r.cacheTTL).Err(); err != nil && r.logger != nil {
		r.logger.Warnf("revocation cache write failed: %v", err)
	}
}
