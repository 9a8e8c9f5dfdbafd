package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
)

// ErrTokenRevoked is the reason attached to rejections of blacklisted
// tokens.
var ErrTokenRevoked = errors.New("token revoked")

// Authenticator turns a raw token into the user it names.
type Authenticator struct {
	codec    *Codec
	registry *Registry
	users    repository.Users
}

// NewAuthenticator builds an Authenticator over codec, registry and users.
func NewAuthenticator(codec *Codec, registry *Registry, users repository.Users) *Authenticator {
	return &Authenticator{codec: codec, registry: registry, users: users}
}

// Authenticate resolves a bearer access token. Every token problem is
// model.ErrInvalidToken; a valid token naming a missing user is
// model.ErrUserNotFound.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	u, _, err := a.Resolve(ctx, KindAccess, raw)
	return u, err
}

// Resolve is the identity resolution shared by every token kind: revocation
// check, signature and expiry for kind, claim presence, then lookup by id
// with email as the fallback. Token rejections wrap model.ErrInvalidToken
// and the specific reason (ErrTokenRevoked, ErrTokenExpired, ...).
func (a *Authenticator) Resolve(ctx context.Context, kind Kind, raw string) (*model.User, *Claims, error) {
	if raw == "" {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, ErrTokenMalformed)
	}
	revoked, err := a.registry.IsRevoked(ctx, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, ErrTokenRevoked)
	}
	claims, err := a.codec.Verify(kind, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}
	if claims.UserID == "" && claims.Email == "" {
		return nil, nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, ErrTokenMalformed)
	}

	var u *model.User
	if claims.UserID != "" {
		u, err = a.users.GetByID(ctx, claims.UserID)
	} else {
		u, err = a.users.GetByEmail(ctx, claims.Email)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return u, claims, nil
}
