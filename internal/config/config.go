// Package config loads service configuration from the environment. A
// .env file is honored when present so local development matches the
// deployed environment variable surface.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jonesrussell/notion-cache/internal/cache"
)

const (
	// DefaultReadTimeoutSeconds is the default read timeout in seconds
	DefaultReadTimeoutSeconds = 10
	// DefaultWriteTimeoutSeconds is the default write timeout in seconds
	DefaultWriteTimeoutSeconds = 30
	// DefaultShutdownTimeoutSeconds is the default shutdown timeout in seconds
	DefaultShutdownTimeoutSeconds = 30

	defaultAddress    = ":8090"
	defaultCacheDir   = "cache"
	defaultCacheTTL   = time.Hour
	defaultAPITimeout = 30 * time.Second
)

type Config struct {
	Debug  bool
	Server ServerConfig
	Notion NotionConfig
	Cache  CacheConfig
}

type ServerConfig struct {
	Address      string        // e.g., ":8090"
	ReadTimeout  time.Duration // Default: 10s
	WriteTimeout time.Duration // Default: 30s
	CORSOrigins  []string
}

type NotionConfig struct {
	Token      string
	DatabaseID string
	Timeout    time.Duration
}

type CacheConfig struct {
	// Serverless marks ephemeral deployments: in-memory cache only,
	// synchronous fetches, edge cache headers on responses.
	Serverless bool

	Dir string // snapshot directory for the file persister
	TTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Mode reports which cache backing the configuration selects.
func (c *CacheConfig) Mode() string {
	switch {
	case c.Serverless:
		return cache.ModeMemory
	case c.RedisAddr != "":
		return cache.ModeRedis
	default:
		return cache.ModeFile
	}
}

// Load reads configuration from the environment, applying a .env file
// first when one exists in the working directory.
func Load() (*Config, error) {
	// Missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{
		Debug: parseBool(os.Getenv("APP_DEBUG")),
		Server: ServerConfig{
			Address:     os.Getenv("SERVER_ADDRESS"),
			CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
		},
		Notion: NotionConfig{
			Token:      os.Getenv("NOTION_TOKEN"),
			DatabaseID: os.Getenv("NOTION_DATABASE_ID"),
		},
		Cache: CacheConfig{
			Serverless:    parseBool(os.Getenv("SERVERLESS")),
			Dir:           os.Getenv("CACHE_DIR"),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.Notion.Timeout, err = parseDuration("NOTION_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.Cache.TTL, err = parseDuration("CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.Cache.RedisDB, err = parseInt("REDIS_DB"); err != nil {
		return nil, err
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid and returns an error if not.
// Notion credentials are deliberately not required here: the service still
// starts without them and reports the gap through /api/env-status.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.Cache.TTL)
	}
	if c.Notion.Timeout <= 0 {
		return fmt.Errorf("notion timeout must be positive, got %v", c.Notion.Timeout)
	}
	return nil
}

// setDefaults sets default values for configuration fields
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeoutSeconds * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeoutSeconds * time.Second
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = defaultCacheDir
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Notion.Timeout == 0 {
		cfg.Notion.Timeout = defaultAPITimeout
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func parseDuration(envVar string) (time.Duration, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", envVar, err)
	}
	return d, nil
}

func parseInt(envVar string) (int, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", envVar, err)
	}
	return n, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
