package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/middleware"
	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/service"
)

// PostHandler serves posts. Callers may only author and change their own.
type PostHandler struct {
	Graph *service.GraphService
}

func NewPostHandler(graph *service.GraphService) *PostHandler {
	return &PostHandler{Graph: graph}
}

type createPostReq struct {
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url"`
}

type updatePostReq struct {
	Content   *string `json:"content"`
	MediaType *string `json:"media_type"`
	MediaURL  *string `json:"media_url"`
}

// actingAs resolves the user a create request acts for. An empty id means
// the caller; any other id must be the caller's own.
func actingAs(c echo.Context, requested string) (string, error) {
	caller := middleware.CurrentUserID(c)
	if requested == "" || requested == caller {
		return caller, nil
	}
	return "", model.ErrNotOwner
}

func (h *PostHandler) Create(c echo.Context) error {
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	userID, err := actingAs(c, req.UserID)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Graph.CreatePost(ctx, service.PostInput{
		UserID:    userID,
		Content:   req.Content,
		MediaType: req.MediaType,
		MediaURL:  req.MediaURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toPost(p))
}

func (h *PostHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	posts, err := h.Graph.ListPosts(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toPosts(posts))
}

// ListByUser returns the posts authored by :id.
func (h *PostHandler) ListByUser(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	posts, err := h.Graph.ListUserPosts(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toPosts(posts))
}

func (h *PostHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Graph.GetPost(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toPost(p))
}

func (h *PostHandler) Update(c echo.Context) error {
	var req updatePostReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Graph.GetPost(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if p.UserID != middleware.CurrentUserID(c) {
		return fail(c, model.ErrNotOwner)
	}
	p, err = h.Graph.UpdatePost(ctx, p.ID, model.PostPatch{
		Content:   req.Content,
		MediaType: req.MediaType,
		MediaURL:  req.MediaURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toPost(p))
}

// Delete removes the post with its comments and likes.
func (h *PostHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Graph.GetPost(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if p.UserID != middleware.CurrentUserID(c) {
		return fail(c, model.ErrNotOwner)
	}
	if err := h.Graph.DeletePost(ctx, p.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
