package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/snapgram/internal/middleware"
	"github.com/iliyamo/snapgram/internal/model"
	"github.com/iliyamo/snapgram/internal/service"
)

// LikeHandler serves likes. A user likes a post at most once.
type LikeHandler struct {
	Graph *service.GraphService
}

func NewLikeHandler(graph *service.GraphService) *LikeHandler {
	return &LikeHandler{Graph: graph}
}

type createLikeReq struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
}

func (h *LikeHandler) Create(c echo.Context) error {
	var req createLikeReq
	if err := c.Bind(&req); err != nil || req.PostID == "" {
		return badRequest(c, "post_id required")
	}
	userID, err := actingAs(c, req.UserID)
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Graph.AddLike(ctx, userID, req.PostID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, toLike(l))
}

func (h *LikeHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Graph.GetLike(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if l.UserID != middleware.CurrentUserID(c) {
		return fail(c, model.ErrNotOwner)
	}
	if err := h.Graph.RemoveLike(ctx, l.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByPost returns the likes on post :id.
func (h *LikeHandler) ListByPost(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Graph.ListLikes(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	out := make([]likeResp, 0, len(list))
	for _, l := range list {
		out = append(out, toLike(l))
	}
	return c.JSON(http.StatusOK, out)
}
