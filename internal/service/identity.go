package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/auth"
	"github.com/iliyamo/snapgram/internal/mail"
	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/repository"
	"github.com/iliyamo/snapgram/internal/telemetry"
)

// RegisterInput is a registration request after payload decoding.
type RegisterInput struct {
	Email             string
	Username          string
	Password          string
	FullName          string
	Bio               string
	ProfilePictureURL string
}

// IdentityService owns accounts and sessions.
type IdentityService struct {
	store    repository.Store
	hasher   *auth.Hasher
	codec    *auth.Codec
	registry *auth.Registry
	authn    *auth.Authenticator
	mailer   mail.Sender
	logger   echo.Logger
	now      func() time.Time
}

func NewIdentityService(store repository.Store, hasher *auth.Hasher, codec *auth.Codec, registry *auth.Registry,
	authn *auth.Authenticator, mailer mail.Sender, logger echo.Logger) *IdentityService {
	return &IdentityService{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		registry: registry,
		authn:    authn,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

func identityOf(u *model.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email}
}

// Register creates an account and signs it in. Email and username are
// checked separately so the error names the taken one.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (u *model.User, pair auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "identity.Register")
	defer func() { telemetry.End(span, err) }()

	email := model.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if err := model.ValidateEmail(email); err != nil {
		return nil, pair, err
	}
	if err := model.ValidateUsername(username); err != nil {
		return nil, pair, err
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, pair, err
	}
	profile := model.User{FullName: in.FullName, Bio: in.Bio, ProfilePictureURL: in.ProfilePictureURL}
	if err := profile.ValidateProfile(); err != nil {
		return nil, pair, err
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, pair, err
	}
	if err := s.ensureUsernameFree(ctx, username); err != nil {
		return nil, pair, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, pair, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u = &model.User{
		ID:                uuid.NewString(),
		Email:             email,
		Username:          username,
		PasswordHash:      hash,
		FullName:          in.FullName,
		Bio:               in.Bio,
		ProfilePictureURL: in.ProfilePictureURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, pair, userWriteError(err)
	}

	pair, err = s.codec.IssuePair(identityOf(u))
	if err != nil {
		return nil, pair, fmt.Errorf("issue tokens: %w", err)
	}
	s.logger.Infof("user registered: id=%s", u.ID)
	return u, pair, nil
}

func (s *IdentityService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return model.ErrEmailTaken
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *IdentityService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.store.Users().GetByUsername(ctx, username)
	switch {
	case err == nil:
		return model.ErrUsernameTaken
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return err
	}
}

// userWriteError maps unique key violations lost to a concurrent writer.
func userWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return model.ErrEmailTaken
	case errors.Is(err, repository.ErrUsernameExists):
		return model.ErrUsernameTaken
	case errors.Is(err, repository.ErrNotFound):
		return model.ErrUserNotFound
	}
	return err
}

// Login exchanges email and password for a token pair. An unknown email and
// a wrong password are indistinguishable.
func (s *IdentityService) Login(ctx context.Context, email, password string) (pair auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "identity.Login")
	defer func() { telemetry.End(span, err) }()

	u, err := s.store.Users().GetByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return pair, model.ErrInvalidCredentials
	}
	if err != nil {
		return pair, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return pair, model.ErrInvalidCredentials
	}
	return s.codec.IssuePair(identityOf(u))
}

// Logout revokes the access token of an authenticated session. A refresh
// token issued to the same user is revoked as well; one that fails to
// verify or belongs to someone else is ignored.
func (s *IdentityService) Logout(ctx context.Context, accessToken, refreshToken string) (err error) {
	ctx, span := tracer.Start(ctx, "identity.Logout")
	defer func() { telemetry.End(span, err) }()

	u, err := s.authn.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := s.registry.Revoke(ctx, accessToken); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.codec.Verify(auth.KindRefresh, refreshToken)
	if err != nil || !claimsName(claims, u) {
		return nil
	}
	if err := s.registry.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func claimsName(c *auth.Claims, u *model.User) bool {
	if c.UserID != "" {
		return c.UserID == u.ID
	}
	return c.Email == u.Email
}

// RequestPasswordReset mails a short-lived reset token bound to the
// account's email.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	ctx, span := tracer.Start(ctx, "identity.RequestPasswordReset")
	defer func() { telemetry.End(span, err) }()

	u, err := s.store.Users().GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return notFound(err, model.ErrUserNotFound)
	}
	token, _, err := s.codec.Issue(auth.KindReset, auth.Identity{Email: u.Email}, 0)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		s.logger.Errorf("password reset dispatch failed for user %s: %v", u.ID, err)
		return fmt.Errorf("dispatch reset mail: %w", err)
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token once, stores the new password
// and signs the user in. The token is checked before the new password.
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (pair auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "identity.ConfirmPasswordReset")
	defer func() { telemetry.End(span, err) }()

	u, claims, err := s.authn.Resolve(ctx, auth.KindReset, token)
	if errors.Is(err, model.ErrUnauthorized) {
		return pair, model.ErrResetTokenInvalid
	}
	if err != nil {
		return pair, err
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		return pair, err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return pair, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.ResetTokens().Consume(ctx, claims.ID, u.ID, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return model.ErrResetTokenInvalid
			}
			return err
		}
		return notFound(tx.Users().UpdatePassword(ctx, u.ID, hash, now), model.ErrUserNotFound)
	})
	if err != nil {
		return pair, err
	}
	s.logger.Infof("password reset: user=%s", u.ID)
	return s.codec.IssuePair(identityOf(u))
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Each refresh token is redeemed at most once. Expired and
// otherwise invalid tokens are reported differently.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (pair auth.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "identity.Refresh")
	defer func() { telemetry.End(span, err) }()

	u, _, err := s.authn.Resolve(ctx, auth.KindRefresh, refreshToken)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return pair, model.ErrRefreshExpired
	case errors.Is(err, model.ErrUnauthorized):
		return pair, model.ErrRefreshInvalid
	case err != nil:
		return pair, err
	}
	// Concurrent callers race on one insert; only the winner gets a new pair.
	if err := s.registry.Redeem(ctx, refreshToken); err != nil {
		if errors.Is(err, auth.ErrAlreadyRevoked) {
			return pair, model.ErrRefreshInvalid
		}
		return pair, fmt.Errorf("revoke refresh token: %w", err)
	}
	return s.codec.IssuePair(identityOf(u))
}

// Me returns the current record of the authenticated user.
func (s *IdentityService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, model.ErrUserNotFound)
	}
	return u, nil
}

// UpdateProfile applies patch to the user. Changed email or username must
// still be unique; a new password is re-hashed.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, patch model.UserPatch) (u *model.User, err error) {
	ctx, span := tracer.Start(ctx, "identity.UpdateProfile")
	defer func() { telemetry.End(span, err) }()

	u, err = s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, model.ErrUserNotFound)
	}

	if patch.Email != nil {
		email := model.NormalizeEmail(*patch.Email)
		if err := model.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != u.Email {
			if err := s.ensureEmailFree(ctx, email); err != nil {
				return nil, err
			}
			u.Email = email
		}
	}
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if err := model.ValidateUsername(username); err != nil {
			return nil, err
		}
		if username != u.Username {
			if err := s.ensureUsernameFree(ctx, username); err != nil {
				return nil, err
			}
			u.Username = username
		}
	}
	if patch.Password != nil {
		if err := model.ValidatePassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	u.ApplyProfile(patch)
	if err := u.ValidateProfile(); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, userWriteError(err)
	}
	return u, nil
}
