package router

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/anonto42/picgram/backend/internal/activity"
	"github.com/anonto42/picgram/backend/internal/cache"
	"github.com/anonto42/picgram/backend/internal/handlers"
	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/middleware"
	"github.com/anonto42/picgram/backend/internal/repositories"
	"github.com/anonto42/picgram/backend/internal/services"
	"github.com/anonto42/picgram/backend/pkg/config"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Views     *cache.ViewCache  // optional
	Activity  *activity.Service // optional
	Verifiers []middleware.TokenVerifier
	// Health checks reported by /health, keyed by dependency name.
	Health map[string]handlers.Pinger
}

// New builds the echo instance with middleware and every route wired.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.JSONSerializer = handlers.JSONSerializer{}
	e.HTTPErrorHandler = handlers.ErrorHandler

	SetupMiddleware(e, d.Config, d.Verifiers)
	SetupRoutes(e, d)
	return e
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config, verifiers []middleware.TokenVerifier) {
	e.Use(eMiddleware.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if cfg.Server.BodyLimit != "" {
		e.Use(eMiddleware.BodyLimit(cfg.Server.BodyLimit))
	}
	e.Use(middleware.Identity(verifiers...))
	logging.Debug().Msg("global middleware configured")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	cfg := d.Config

	health := handlers.NewHealthHandler(d.Health)
	e.GET("/health", health.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Repositories ---
	userRepo := repositories.NewPostgresUserRepository(d.DB)
	postRepo := repositories.NewPostgresPostRepository(d.DB)
	followRepo := repositories.NewPostgresFollowRepository(d.DB)
	likeRepo := repositories.NewPostgresLikeRepository(d.DB)

	// --- Services ---
	toggles := services.NewToggleService(userRepo, postRepo, followRepo, likeRepo)
	if d.Views != nil {
		toggles.AddHook(cache.NewHook(d.Views))
	}
	var activityLister handlers.ActivityLister
	if d.Activity != nil {
		toggles.AddHook(d.Activity)
		activityLister = d.Activity
	}
	feed := services.NewFeedService(postRepo, followRepo, likeRepo)
	recommend := services.NewRecommendService(userRepo, cfg.Feed.DefaultRecommendLimit, cfg.Feed.MaxRecommendLimit)
	relations := services.NewRelationService(userRepo, followRepo, cfg.Feed.RelationListLimit)
	search := services.NewSearchService(userRepo, services.NewScanHashtagSource(postRepo),
		cfg.Feed.SearchUserLimit, cfg.Feed.SearchHashtagLimit)

	api := e.Group("/api/v1")
	mutations := mutationLimiter(cfg.Server)

	handlers.NewFollowHandler(toggles).RegisterFollowRoutes(api, mutations...)
	handlers.NewLikeHandler(toggles).RegisterLikeRoutes(api, mutations...)
	handlers.NewFeedHandler(feed, d.Views).RegisterFeedRoutes(api)
	handlers.NewUserHandler(recommend, relations, d.Views).RegisterUserRoutes(api)
	handlers.NewSearchHandler(search).RegisterSearchRoutes(api)
	handlers.NewActivityHandler(activityLister, cfg.Feed.ActivityLimit).RegisterActivityRoutes(api)

	logging.Info().Int("routes", len(e.Routes())).Msg("routes configured")
}

// mutationLimiter throttles toggles per client. A zero rate disables it.
func mutationLimiter(cfg config.ServerConfig) []echo.MiddlewareFunc {
	if cfg.RateLimit <= 0 {
		return nil
	}
	store := eMiddleware.NewRateLimiterMemoryStoreWithConfig(eMiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RateLimit),
		Burst:     cfg.RateBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{eMiddleware.RateLimiterWithConfig(eMiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
	})}
}

// DBPinger adapts a gorm connection to a health check.
func DBPinger(db *gorm.DB) handlers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
