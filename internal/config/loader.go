package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

const envPrefix = "TALENT_"

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file if TALENT_ENV_FILE is set (exported into the process env)
//  3. YAML file if TALENT_CONFIG is set
//  4. env (prefix TALENT_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	if path := os.Getenv("TALENT_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv("TALENT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TALENT_QUEUE_SIZE -> queue_size. Underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports all problems together.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Addr == "" {
		add("addr must not be empty")
	}
	switch c.MissingPolicy {
	case "fail", "zero", "impute-mean":
	default:
		add("missing_policy %q must be fail, zero or impute-mean", c.MissingPolicy)
	}
	if c.OutputScale <= 0 {
		add("output_scale must be positive, got %v", c.OutputScale)
	}
	if c.TopQuantile <= 0 || c.TopQuantile > 1 {
		add("top_quantile must be in (0, 1], got %v", c.TopQuantile)
	}
	if c.MinCohortSize < 2 {
		add("min_cohort_size must be at least 2, got %d", c.MinCohortSize)
	}
	if c.WeightTotal <= 0 {
		add("weight_total must be positive, got %v", c.WeightTotal)
	}
	if c.WeightTolerance < 0 {
		add("weight_tolerance must not be negative, got %v", c.WeightTolerance)
	}
	if c.QueueSize <= 0 {
		add("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.WorkerCount <= 0 {
		add("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.MaxRankingLimit <= 0 {
		add("max_ranking_limit must be positive, got %d", c.MaxRankingLimit)
	}
	switch c.StorageDriver {
	case StorageNone:
	case StoragePostgres, StorageSQLite:
		if c.StorageDSN == "" {
			add("storage_dsn is required for storage_driver %s", c.StorageDriver)
		}
	default:
		add("storage_driver %q must be none, postgres or sqlite", c.StorageDriver)
	}
	switch c.LLMProvider {
	case LLMNone, LLMOpenAI, LLMGemini, LLMFallback:
	default:
		add("llm_provider %q must be none, openai, gemini or fallback", c.LLMProvider)
	}
	return errs
}
