package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
)

// ActivityLister lists the recent activity addressed to a principal.
type ActivityLister interface {
	List(ctx context.Context, p identity.Principal, limit int) ([]models.Activity, error)
}

// ActivityHandler serves the activity list
type ActivityHandler struct {
	activity     ActivityLister
	defaultLimit int
}

// NewActivityHandler creates a new ActivityHandler. A nil lister serves an
// empty list.
func NewActivityHandler(activity ActivityLister, defaultLimit int) *ActivityHandler {
	return &ActivityHandler{activity: activity, defaultLimit: defaultLimit}
}

// RegisterActivityRoutes registers activity routes
func (h *ActivityHandler) RegisterActivityRoutes(g *echo.Group) {
	g.GET("/activity", h.GetActivity)
}

// GetActivity returns the latest follows and likes received by the viewer
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	viewer := principal(c)
	if viewer.IsAnonymous() {
		return apperr.ErrAuthRequired
	}

	var req models.LimitRequest
	if err := bindQuery(c, &req, "limit"); err != nil {
		return err
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	items := []models.Activity{}
	if h.activity != nil {
		list, err := h.activity.List(c.Request().Context(), viewer, limit)
		if err != nil {
			return err
		}
		if list != nil {
			items = list
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"activities": items,
	})
}
