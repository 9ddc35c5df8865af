package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/services"
)

// LikeHandler handles like toggles
type LikeHandler struct {
	toggles *services.ToggleService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(toggles *services.ToggleService) *LikeHandler {
	return &LikeHandler{toggles: toggles}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/posts/:id/like", h.ToggleLike, mw...)
}

// ToggleLike likes the post if not yet liked, unlikes otherwise
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	postID, err := parseID(c)
	if err != nil {
		return err
	}

	res, err := h.toggles.ToggleLike(c.Request().Context(), principal(c), postID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"isLiked":    res.State,
		"likesCount": res.Count,
	})
}
