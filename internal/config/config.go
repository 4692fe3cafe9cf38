// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/poller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Sport registry
// --------------------------------------------------------------------------

type SportConfig struct {
	ID   string
	Name string
	// TeamGame sports play two-sided games with quarter boundaries;
	// the rest are tournaments scored by leaderboard.
	TeamGame bool
}

var SportRegistry = map[string]SportConfig{
	"nfl":  {ID: "nfl", Name: "National Football League", TeamGame: true},
	"nba":  {ID: "nba", Name: "National Basketball Association", TeamGame: true},
	"golf": {ID: "golf", Name: "Professional Golf", TeamGame: false},
}

// KnownSport reports whether the sport id is registered.
func KnownSport(id string) bool {
	_, ok := SportRegistry[strings.ToLower(id)]
	return ok
}

// --------------------------------------------------------------------------
// Settings
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Score provider
	ScoreFeedBaseURL string
	ScoreFeedAPIKey  string
	ScoreFeedRPM     int

	// Poll scheduler
	PollerEnabled bool
	PollTick      time.Duration
	PollLeaseTTL  time.Duration
	PollLookahead time.Duration
	PollWorkers   int

	// Cluster lock: memory, advisory, or redis
	LockBackend   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("POSTGRES_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		ScoreFeedBaseURL: envOr("SCOREFEED_BASE_URL", "https://api.scorefeed.io"),
		ScoreFeedAPIKey:  envOr("SCOREFEED_API_KEY", ""),
		ScoreFeedRPM:     envInt("SCOREFEED_RPM", 300),

		PollerEnabled: envBool("POLLER_ENABLED", true),
		PollTick:      time.Duration(envInt("POLL_TICK_SECONDS", 15)) * time.Second,
		PollLeaseTTL:  time.Duration(envInt("POLL_LEASE_TTL_SECONDS", 60)) * time.Second,
		PollLookahead: time.Duration(envInt("POLL_LOOKAHEAD_MINUTES", 120)) * time.Minute,
		PollWorkers:   envInt("POLL_WORKERS", 4),

		LockBackend:   envOr("LOCK_BACKEND", "advisory"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	switch cfg.LockBackend {
	case "memory", "advisory", "redis":
	default:
		return nil, fmt.Errorf("LOCK_BACKEND must be memory, advisory, or redis, got %q", cfg.LockBackend)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
