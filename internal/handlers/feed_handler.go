package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/picgram/backend/internal/cache"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/services"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feed  *services.FeedService
	views *cache.ViewCache
}

// NewFeedHandler creates a new FeedHandler. views may be nil.
func NewFeedHandler(feed *services.FeedService, views *cache.ViewCache) *FeedHandler {
	return &FeedHandler{feed: feed, views: views}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the viewer's annotated feed, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	var req models.FeedRequest
	if err := bindQuery(c, &req, "type"); err != nil {
		return err
	}
	mode, err := services.ParseFeedMode(req.Type)
	if err != nil {
		return err
	}

	viewer := principal(c)
	key := cache.Key{
		Path:   cache.RootPath,
		View:   "feed",
		Params: cache.Params("type", string(mode), "viewer", strconv.FormatUint(uint64(viewer.UserID), 10)),
	}
	posts, err := cache.Load(c.Request().Context(), h.views, key, func(ctx context.Context) ([]models.FeedPost, error) {
		return h.feed.Compose(ctx, viewer, mode)
	})
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []models.FeedPost{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"posts":    posts,
		"feedType": mode,
	})
}
