package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Feed.DefaultRecommendLimit)
	assert.Equal(t, 20, cfg.Feed.RelationListLimit)
	assert.Equal(t, 10, cfg.Feed.SearchUserLimit)
	assert.Equal(t, 8, cfg.Feed.SearchHashtagLimit)
	assert.False(t, cfg.Mongo.Enabled())
}

func TestLoadLegacyEnvNames(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "9000")
	t.Setenv("POSTGRES_CONN_STR", "postgres://u:p@localhost/db")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.Database.PostgresDSN)
	assert.True(t, cfg.Mongo.Enabled())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadPrefixedEnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "cache:\n  ttl: 5s\nfeed:\n  max_recommend_limit: 40\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SOCIAL_LOGGING__LEVEL", "debug")
	t.Setenv("SOCIAL_SERVER__CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 40, cfg.Feed.MaxRecommendLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	assert.Error(t, err)
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "server.port", envTransformFunc("PORT"))
	assert.Equal(t, "cache.enabled", envTransformFunc("SOCIAL_CACHE__ENABLED"))
	assert.Equal(t, "", envTransformFunc("HOME"))
}
