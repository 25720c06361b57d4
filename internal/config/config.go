// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the tunables for the scan pipeline and its integrations.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Staleness-driven reclassification
	FreshnessWindow   time.Duration // a status older than this is stale
	ClassifyWorkers   int
	ClassifyQueueSize int
	ClassifyTimeout   time.Duration
	SweepSchedule     string // cron spec; empty disables the nightly sweep
	SweepBatchSize    int

	// Community sourcing
	MinCommunityImages int
	MaxCommunityImages int

	// External open catalog
	CatalogBaseURL  string
	CatalogTimeout  time.Duration
	CatalogCacheTTL time.Duration
	RedisAddr       string // empty disables the lookup cache

	// AI endpoint (OpenAI-compatible chat completions)
	AIBaseURL string
	AIAPIKey  string
	AIModel   string
	AITimeout time.Duration

	// Object storage for community images
	StorageBaseURL string
	StorageBucket  string
	StorageAPIKey  string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func durenvh(key string, defHours int) time.Duration {
	h := atoienv(key, defHours)
	return time.Duration(h) * time.Hour
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        ":" + getenv("PORT", "3000"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),

		FreshnessWindow:   durenvh("FRESHNESS_WINDOW_HOURS", 7*24),
		ClassifyWorkers:   atoienv("CLASSIFY_WORKERS", 2),
		ClassifyQueueSize: atoienv("CLASSIFY_QUEUE_SIZE", 256),
		ClassifyTimeout:   durenvs("CLASSIFY_TIMEOUT", 60),
		SweepSchedule:     getenv("SWEEP_SCHEDULE", "0 3 * * *"),
		SweepBatchSize:    atoienv("SWEEP_BATCH_SIZE", 100),

		MinCommunityImages: atoienv("MIN_COMMUNITY_IMAGES", 4),
		MaxCommunityImages: atoienv("MAX_COMMUNITY_IMAGES", 8),

		CatalogBaseURL:  getenv("CATALOG_BASE_URL", "https://world.openfoodfacts.org"),
		CatalogTimeout:  durenvs("CATALOG_TIMEOUT", 10),
		CatalogCacheTTL: durenvh("CATALOG_CACHE_TTL_HOURS", 24),
		RedisAddr:       getenv("REDIS_ADDR", ""),

		AIBaseURL: getenv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:  getenv("AI_API_KEY", ""),
		AIModel:   getenv("AI_MODEL", "gpt-4o-mini"),
		AITimeout: durenvs("AI_TIMEOUT", 60),

		StorageBaseURL: getenv("STORAGE_BASE_URL", ""),
		StorageBucket:  getenv("STORAGE_BUCKET", "product-images"),
		StorageAPIKey:  getenv("STORAGE_API_KEY", ""),
	}
}
