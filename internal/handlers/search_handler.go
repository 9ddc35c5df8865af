package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/services"
)

// SearchHandler serves user and hashtag search
type SearchHandler struct {
	search *services.SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// RegisterSearchRoutes registers search routes
func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
}

// Search matches users by name or email and hashtags by prefix fragment
func (h *SearchHandler) Search(c echo.Context) error {
	var req models.SearchRequest
	if err := bindQuery(c, &req, "query"); err != nil {
		return err
	}

	res, err := h.search.Search(c.Request().Context(), principal(c), req.Query)
	if err != nil {
		return err
	}

	users := nonNil(res.Users)
	hashtags := res.Hashtags
	if hashtags == nil {
		hashtags = []models.HashtagCount{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"users":      users,
		"hashtags":   hashtags,
		"searchTerm": res.SearchTerm,
	})
}
