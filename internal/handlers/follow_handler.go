package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/services"
)

// FollowHandler handles follow toggles
type FollowHandler struct {
	toggles *services.ToggleService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(toggles *services.ToggleService) *FollowHandler {
	return &FollowHandler{toggles: toggles}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/users/:id/follow", h.ToggleFollow, mw...)
}

// ToggleFollow follows the user if not yet followed, unfollows otherwise
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	targetID, err := parseID(c)
	if err != nil {
		return err
	}

	res, err := h.toggles.ToggleFollow(c.Request().Context(), principal(c), targetID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"isFollowing":    res.State,
		"followersCount": res.Count,
	})
}
