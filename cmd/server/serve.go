package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anonto42/picgram/backend/internal/activity"
	"github.com/anonto42/picgram/backend/internal/cache"
	"github.com/anonto42/picgram/backend/internal/handlers"
	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/middleware"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
	"github.com/anonto42/picgram/backend/internal/router"
	"github.com/anonto42/picgram/backend/pkg/config"
	"github.com/anonto42/picgram/backend/pkg/firebase"
	"github.com/anonto42/picgram/backend/pkg/telemetry"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: "picgram-api",
		Environment: cfg.Server.Env,
		Exporter:    cfg.Telemetry.Exporter,
		Output:      os.Stdout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if cfg.Database.AutoMigrate {
		if err := models.AutoMigrate(db.Postgres); err != nil {
			return err
		}
		logging.Info().Msg("PostgreSQL auto-migrations completed")
	}

	deps := router.Deps{
		Config: cfg,
		DB:     db.Postgres,
		Health: map[string]handlers.Pinger{"postgres": router.DBPinger(db.Postgres)},
	}

	if cfg.Cache.Enabled {
		views, err := cache.Open(cfg.Cache.TTL)
		if err != nil {
			return err
		}
		defer views.Close()
		deps.Views = views
	}

	if db.Mongo != nil {
		store := activity.NewMongoStore(db.Mongo.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		if err := store.EnsureIndexes(ctx); err != nil {
			logging.Warn().Err(err).Msg("failed to create activity indexes")
		}
		deps.Activity = activity.NewService(store, activity.DefaultBreakerSettings())
		deps.Health["mongo"] = func(ctx context.Context) error { return db.Mongo.Ping(ctx, nil) }
	}

	deps.Verifiers, err = verifiers(ctx, db)
	if err != nil {
		return err
	}

	e := router.New(deps)
	addr := ":" + cfg.Server.Port

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Server.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// verifiers builds the token verifiers in the order they are tried.
func verifiers(ctx context.Context, db *config.DB) ([]middleware.TokenVerifier, error) {
	var out []middleware.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		users := repositories.NewPostgresUserRepository(db.Postgres)
		out = append(out, middleware.NewJWTVerifier(cfg.Auth.JWTSecret).WithUsers(users))
	}

	app, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath)
	switch {
	case errors.Is(err, firebase.ErrNoCredentials):
		logging.Info().Msg("firebase credentials not configured, firebase tokens disabled")
	case err != nil:
		return nil, err
	default:
		out = append(out, middleware.NewFirebaseVerifier(app, repositories.NewPostgresUserRepository(db.Postgres)))
	}

	if len(out) == 0 {
		logging.Warn().Msg("no token verifier configured, every request is anonymous")
	}
	return out, nil
}
