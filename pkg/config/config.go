// Package config loads server configuration from defaults, an optional
// YAML file, a .env file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix namespaces structured environment overrides, e.g.
// SOCIAL_CACHE__TTL=30s sets cache.ttl.
const EnvPrefix = "SOCIAL_"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Mongo     MongoConfig     `koanf:"mongo"`
	Auth      AuthConfig      `koanf:"auth"`
	Cache     CacheConfig     `koanf:"cache"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Feed      FeedConfig      `koanf:"feed"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required,numeric"`
	Env             string        `koanf:"env" validate:"oneof=development production test"`
	BodyLimit       string        `koanf:"body_limit"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"` // mutations per second per client, 0 disables
	RateBurst       int           `koanf:"rate_burst" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	PostgresDSN     string        `koanf:"postgres_dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// MongoConfig configures the activity store. An empty URI disables it.
type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// Enabled reports whether a Mongo URI was configured.
func (m MongoConfig) Enabled() bool {
	return m.URI != ""
}

type AuthConfig struct {
	JWTSecret               string `koanf:"jwt_secret"`
	FirebaseCredentialsPath string `koanf:"firebase_credentials_path"`
}

type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter" validate:"omitempty,oneof=stdout none"`
}

// FeedConfig holds the list sizes of the read operations.
type FeedConfig struct {
	DefaultRecommendLimit int `koanf:"default_recommend_limit" validate:"min=1"`
	MaxRecommendLimit     int `koanf:"max_recommend_limit" validate:"min=1,gtefield=DefaultRecommendLimit"`
	RelationListLimit     int `koanf:"relation_list_limit" validate:"min=1"`
	SearchUserLimit       int `koanf:"search_user_limit" validate:"min=1"`
	SearchHashtagLimit    int `koanf:"search_hashtag_limit" validate:"min=1"`
	ActivityLimit         int `koanf:"activity_limit" validate:"min=1"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Env:             "development",
			BodyLimit:       "1M",
			RateLimit:       10,
			RateBurst:       20,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
		},
		Mongo: MongoConfig{
			Database:   "socialmedia",
			Collection: "activities",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Exporter: "stdout",
		},
		Feed: FeedConfig{
			DefaultRecommendLimit: 10,
			MaxRecommendLimit:     50,
			RelationListLimit:     20,
			SearchUserLimit:       10,
			SearchHashtagLimit:    8,
			ActivityLimit:         20,
		},
	}
}

// Load builds the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// legacyEnv keeps the variable names deployments already use.
var legacyEnv = map[string]string{
	"port":                      "server.port",
	"env":                       "server.env",
	"cors_origins":              "server.cors_origins",
	"postgres_conn_str":         "database.postgres_dsn",
	"mongo_uri":                 "mongo.uri",
	"mongo_database":            "mongo.database",
	"jwt_secret":                "auth.jwt_secret",
	"firebase_credentials_path": "auth.firebase_credentials_path",
	"log_level":                 "logging.level",
	"log_format":                "logging.format",
	"cache_ttl":                 "cache.ttl",
	"tracing_enabled":           "telemetry.enabled",
}

func envTransformFunc(key string) string {
	if strings.HasPrefix(key, EnvPrefix) {
		key = strings.TrimPrefix(key, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	}
	if mapped, ok := legacyEnv[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}
