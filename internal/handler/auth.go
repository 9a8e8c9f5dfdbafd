package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/middleware"
	"github.com/iliyamo/snapgram/internal/service"
)

// AuthHandler serves registration, sessions and password reset.
type AuthHandler struct {
	Identity *service.IdentityService
}

func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{Identity: identity}
}

// ----- DTOs -----

type registerReq struct {
	Email             string `json:"email"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	FullName          string `json:"full_name"`
	Bio               string `json:"bio"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// loginReq accepts JSON {email, password} or the OAuth2 password form,
// where the email travels as "username".
type loginReq struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type resetReq struct {
	Email string `json:"email"`
}

type resetConfirmReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type registerResp struct {
	User userResp `json:"user"`
	tokenResp
}

// Register: create the account and return a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, pair, err := h.Identity.Register(ctx, service.RegisterInput{
		Email:             req.Email,
		Username:          req.Username,
		Password:          req.Password,
		FullName:          req.FullName,
		Bio:               req.Bio,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, registerResp{User: toUser(u), tokenResp: toTokens(pair, time.Now())})
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Identity.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTokens(pair, time.Now()))
}

// Refresh: exchange a refresh token for a new pair; the old one is revoked.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Identity.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTokens(pair, time.Now()))
}

// Logout revokes the bearer token and, when supplied, the refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Identity.Logout(ctx, middleware.CurrentToken(c), strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "successfully logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Identity.Me(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// RequestPasswordReset mails a reset link. The answer never says more than
// whether the request was accepted.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "email required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Identity.RequestPasswordReset(ctx, req.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "password reset email sent"})
}

// ConfirmPasswordReset sets the new password and signs the user in.
func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return badRequest(c, "token required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	pair, err := h.Identity.ConfirmPasswordReset(ctx, strings.TrimSpace(req.Token), req.NewPassword)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toTokens(pair, time.Now()))
}
