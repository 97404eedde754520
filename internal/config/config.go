// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a .env file, a YAML file and TALENT_ environment variables on top.
// - Validate reports every invalid field at once.
package config

import (
	"runtime"
)

// Supported storage drivers.
const (
	StorageNone     = "none"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Supported narrative providers.
const (
	LLMNone     = "none"
	LLMOpenAI   = "openai"
	LLMGemini   = "gemini"
	LLMFallback = "fallback"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches the logger to JSON output.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory run queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of run workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the remembered run idempotency keys.
	DedupeSize int `koanf:"dedupe_size"`
	// ScoreConcurrency caps goroutines used inside one batch. 1 scores sequentially.
	ScoreConcurrency int `koanf:"score_concurrency"`

	// MissingPolicy is one of fail, zero, impute-mean.
	MissingPolicy string `koanf:"missing_policy"`
	// OutputScale is the upper bound of a final match rate.
	OutputScale float64 `koanf:"output_scale"`
	// TopQuantile is the share of ranked employees treated as top performers.
	TopQuantile float64 `koanf:"top_quantile"`
	// MinCohortSize is the smallest ranking a pattern is extracted from.
	MinCohortSize int `koanf:"min_cohort_size"`
	// WeightTotal is the sum every role's weights must reach.
	WeightTotal float64 `koanf:"weight_total"`
	// WeightTolerance is the relative tolerance on WeightTotal.
	WeightTolerance float64 `koanf:"weight_tolerance"`
	// MaxRankingLimit caps GET /roles/{role}/ranking?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// StorageDriver selects the storage collaborator: none, postgres, sqlite.
	StorageDriver string `koanf:"storage_driver"`
	// StorageDSN is the driver specific data source name.
	StorageDSN string `koanf:"storage_dsn"`

	// RedisAddr enables the ranking cache when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	// CacheTTLSeconds is the lifetime of a cached ranking.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// LLMProvider selects the narrative collaborator: none, openai, gemini, fallback.
	LLMProvider       string `koanf:"llm_provider"`
	LLMBaseURL        string `koanf:"llm_base_url"`
	LLMAPIKey         string `koanf:"llm_api_key"`
	LLMModel          string `koanf:"llm_model"`
	GeminiAPIKey      string `koanf:"gemini_api_key"`
	GeminiModel       string `koanf:"gemini_model"`
	LLMTimeoutSeconds int    `koanf:"llm_timeout_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		QueueSize:         1_000,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        10_000,
		ScoreConcurrency:  runtime.NumCPU(),
		MissingPolicy:     "fail",
		OutputScale:       100,
		TopQuantile:       0.25,
		MinCohortSize:     5,
		WeightTotal:       1.0,
		WeightTolerance:   1e-6,
		MaxRankingLimit:   100,
		StorageDriver:     StorageNone,
		CacheTTLSeconds:   300,
		LLMProvider:       LLMNone,
		LLMBaseURL:        "https://openrouter.ai/api/v1",
		LLMModel:          "x-ai/grok-4.1-fast:free",
		GeminiModel:       "gemini-2.5-flash",
		LLMTimeoutSeconds: 30,
	}
}
