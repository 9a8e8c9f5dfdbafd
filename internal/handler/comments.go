package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/middleware"
	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/service"
)

// CommentHandler serves comments on posts.
type CommentHandler struct {
	Graph *service.GraphService
}

// NewCommentHandler builds a CommentHandler on graph.
func NewCommentHandler(graph *service.GraphService) *CommentHandler {
	return &CommentHandler{Graph: graph}
}

type createCommentReq struct {
	PostID  string `json:"post_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type updateCommentReq struct {
	Content string `json:"content"`
}

// Create adds a comment as the caller.
func (h *CommentHandler) Create(c echo.Context) error {
	var req createCommentReq
	if err := c.Bind(&req); err != nil || req.PostID == "" {
		return badRequest(c, "post_id required")
	}
	userID, err := actingAs(c, req.UserID)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	cm, err := h.Graph.AddComment(ctx, service.CommentInput{PostID: req.PostID, UserID: userID, Content: req.Content})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toComment(cm))
}

// List returns every comment.
func (h *CommentHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Graph.ListAllComments(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toComments(list))
}

// ListByPost returns the comments on post :id.
func (h *CommentHandler) ListByPost(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Graph.ListComments(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toComments(list))
}

func (h *CommentHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	cm, err := h.Graph.GetComment(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toComment(cm))
}

func (h *CommentHandler) Update(c echo.Context) error {
	var req updateCommentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	cm, err := h.Graph.GetComment(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if cm.UserID != middleware.CurrentUserID(c) {
		return fail(c, model.ErrNotOwner)
	}
	cm, err = h.Graph.UpdateComment(ctx, cm.ID, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toComment(cm))
}

func (h *CommentHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	cm, err := h.Graph.GetComment(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if cm.UserID != middleware.CurrentUserID(c) {
		return fail(c, model.ErrNotOwner)
	}
	if err := h.Graph.DeleteComment(ctx, cm.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
