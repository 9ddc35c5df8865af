package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/picgram/backend/internal/handlers"
	"github.com/anonto42/picgram/backend/internal/router"
	"github.com/anonto42/picgram/backend/internal/testinfra"
	"github.com/anonto42/picgram/backend/pkg/config"
)

func serve(t *testing.T, d router.Deps, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.New(d).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	db := testinfra.NewDB(t)
	e := router.New(router.Deps{Config: config.Default(), DB: db})

	// Generate at least one labelled request series.
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"), "metrics body lacks request counter")
}

func TestMutationRateLimit(t *testing.T) {
	db := testinfra.NewDB(t)
	cfg := config.Default()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 1
	e := router.New(router.Deps{Config: cfg, DB: db})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users/1/follow", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusUnauthorized, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])

	// Reads are not throttled.
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestHealthReportsFailingDependency(t *testing.T) {
	db := testinfra.NewDB(t)
	rec := serve(t, router.Deps{
		Config: config.Default(),
		DB:     db,
		Health: map[string]handlers.Pinger{
			"postgres": router.DBPinger(db),
			"mongo":    func(context.Context) error { return errors.New("no reachable servers") },
		},
	}, http.MethodGet, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
	assert.Contains(t, rec.Body.String(), "no reachable servers")
}
