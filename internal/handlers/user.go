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

// UserHandler serves recommendations and the relation views of a profile
type UserHandler struct {
	recommend *services.RecommendService
	relations *services.RelationService
	views     *cache.ViewCache
}

// NewUserHandler creates a new UserHandler. views may be nil.
func NewUserHandler(recommend *services.RecommendService, relations *services.RelationService, views *cache.ViewCache) *UserHandler {
	return &UserHandler{recommend: recommend, relations: relations, views: views}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/recommended", h.GetRecommendedUsers)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
}

// GetRecommendedUsers returns users the viewer may want to follow
func (h *UserHandler) GetRecommendedUsers(c echo.Context) error {
	limit, err := readLimit(c)
	if err != nil {
		return err
	}
	limit = h.recommend.Limit(limit)

	viewer := principal(c)
	key := cache.Key{
		Path:   cache.RootPath,
		View:   "recommended",
		Params: cache.Params("limit", strconv.Itoa(limit), "viewer", strconv.FormatUint(uint64(viewer.UserID), 10)),
	}
	users, err := cache.Load(c.Request().Context(), h.views, key, func(ctx context.Context) ([]models.UserSummary, error) {
		return h.recommend.Recommend(ctx, viewer, limit)
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"users":   nonNil(users),
	})
}

// GetFollowers lists the users following :id, newest first
func (h *UserHandler) GetFollowers(c echo.Context) error {
	return h.relationList(c, "followers", h.relations.Followers)
}

// GetFollowing lists the users :id follows, newest first
func (h *UserHandler) GetFollowing(c echo.Context) error {
	return h.relationList(c, "following", h.relations.Following)
}

func (h *UserHandler) relationList(
	c echo.Context,
	view string,
	list func(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error),
) error {
	userID, err := parseID(c)
	if err != nil {
		return err
	}
	var req models.LimitRequest
	if err := bindQuery(c, &req, "limit"); err != nil {
		return err
	}

	key := cache.Key{
		Path:   cache.ProfilePath(userID),
		View:   view,
		Params: cache.Params("limit", strconv.Itoa(req.Limit)),
	}
	users, err := cache.Load(c.Request().Context(), h.views, key, func(ctx context.Context) ([]models.UserSummary, error) {
		return list(ctx, userID, req.Limit)
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"users":   nonNil(users),
	})
}

// GetFollowStatus describes the relation between the viewer and :id
func (h *UserHandler) GetFollowStatus(c echo.Context) error {
	targetID, err := parseID(c)
	if err != nil {
		return err
	}

	viewer := principal(c)
	key := cache.Key{
		Path:   cache.ProfilePath(targetID),
		View:   "follow-status",
		Params: cache.Params("viewer", strconv.FormatUint(uint64(viewer.UserID), 10)),
	}
	status, err := cache.Load(c.Request().Context(), h.views, key, func(ctx context.Context) (models.FollowStatus, error) {
		return h.relations.FollowStatus(ctx, viewer, targetID)
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"followersCount": status.FollowersCount,
		"followingCount": status.FollowingCount,
		"isFollowing":    status.IsFollowing,
		"isFollowedBy":   status.IsFollowedBy,
	})
}

func nonNil(users []models.UserSummary) []models.UserSummary {
	if users == nil {
		return []models.UserSummary{}
	}
	return users
}
