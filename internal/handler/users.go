package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/middleware"
	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/service"
)

// UserHandler serves user records and the follow graph.
type UserHandler struct {
	Identity *service.IdentityService
	Graph    *service.GraphService
}

func NewUserHandler(identity *service.IdentityService, graph *service.GraphService) *UserHandler {
	return &UserHandler{Identity: identity, Graph: graph}
}

// updateUserReq uses pointers so absent fields stay untouched.
type updateUserReq struct {
	Email             *string `json:"email"`
	Username          *string `json:"username"`
	Password          *string `json:"password"`
	FullName          *string `json:"full_name"`
	Bio               *string `json:"bio"`
	ProfilePictureURL *string `json:"profile_picture_url"`
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	users, err := h.Graph.ListUsers(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUsers(users))
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Graph.GetUser(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// Update applies a partial profile update. Routed behind RequireSelf.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Identity.UpdateProfile(ctx, c.Param("id"), model.UserPatch{
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
	return c.JSON(http.StatusOK, toUser(u))
}

// Delete removes the account and everything that references it. Routed
// behind RequireSelf.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Graph.DeleteUser(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Follow makes the caller follow :id.
func (h *UserHandler) Follow(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Graph.Follow(ctx, middleware.CurrentUserID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "followed"})
}

// Unfollow removes the caller's edge to :id.
func (h *UserHandler) Unfollow(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Graph.Unfollow(ctx, middleware.CurrentUserID(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "unfollowed"})
}

func (h *UserHandler) Followers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	users, err := h.Graph.Followers(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUsers(users))
}

func (h *UserHandler) Following(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	users, err := h.Graph.Following(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUsers(users))
}
