package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/cache"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/storage"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/config"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/registry"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

// dependencies holds the optional collaborators selected by configuration.
type dependencies struct {
	store    *storage.SQLStore
	cache    cache.Cache
	narrator narrative.Narrator
	closers  []io.Closer
}

// Close releases every opened collaborator.
func (d *dependencies) Close() error {
	var errs error
	for _, c := range d.closers {
		errs = multierr.Append(errs, c.Close())
	}
	return errs
}

// buildDependencies opens storage, the ranking cache and the narrative providers.
// Storage failures are fatal. A cache that cannot be reached is skipped.
func buildDependencies(ctx context.Context, cfg *config.Config, log logger.Logger) (*dependencies, error) {
	deps := &dependencies{cache: cache.Nop{}, narrator: narrative.Disabled{}}

	if cfg.StorageDriver != config.StorageNone {
		st, err := storage.Open(ctx, cfg.StorageDriver, cfg.StorageDSN, log.Named("storage"))
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		deps.store = st
		deps.closers = append(deps.closers, st)
	}

	if cfg.RedisAddr != "" {
		rc, err := cache.Dial(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
		}, log.Named("cache"))
		if err != nil {
			log.Warn(ctx, "ranking cache disabled", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		} else {
			deps.cache = rc
			deps.closers = append(deps.closers, rc)
		}
	}

	n, err := buildNarrator(ctx, cfg, log.Named("narrative"))
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.narrator = n
	return deps, nil
}

// buildNarrator selects the narrative provider chain.
func buildNarrator(ctx context.Context, cfg *config.Config, log logger.Logger) (narrative.Narrator, error) {
	llmOpts := []narrative.Option{
		narrative.WithTimeout(time.Duration(cfg.LLMTimeoutSeconds) * time.Second),
		narrative.WithLogger(log),
	}
	openAI := func() (narrative.Narrator, error) {
		c, err := narrative.NewOpenAI(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return narrative.NewLLM(c, llmOpts...), nil
	}
	gemini := func() (narrative.Narrator, error) {
		c, err := narrative.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return narrative.NewLLM(c, llmOpts...), nil
	}

	switch cfg.LLMProvider {
	case config.LLMOpenAI:
		return openAI()
	case config.LLMGemini:
		return gemini()
	case config.LLMFallback:
		var chain narrative.Fallback
		var errs error
		for _, build := range []func() (narrative.Narrator, error){openAI, gemini} {
			n, err := build()
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			chain = append(chain, n)
		}
		if len(chain) == 0 {
			return nil, fmt.Errorf("no narrative provider configured: %w", errs)
		}
		if errs != nil {
			log.Warn(ctx, "narrative fallback chain is incomplete", logger.Int("providers", len(chain)), logger.Error(errs))
		}
		return chain, nil
	default:
		return narrative.Disabled{}, nil
	}
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config, deps *dependencies, log logger.Logger) []service.Option {
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithScoreConcurrency(cfg.ScoreConcurrency),
		service.WithMaxRankingLimit(cfg.MaxRankingLimit),
		service.WithPatternOptions(ranking.Options{TopQuantile: cfg.TopQuantile, MinCohort: cfg.MinCohortSize}),
		service.WithRegistryOptions(registry.WithWeightTotal(cfg.WeightTotal), registry.WithTolerance(cfg.WeightTolerance)),
		service.WithCache(deps.cache),
		service.WithNarrator(deps.narrator),
	}
	// Validate has already checked both values.
	if rc, err := scoring.NewRunConfig(scoring.Policy(cfg.MissingPolicy), cfg.OutputScale); err == nil {
		opts = append(opts, service.WithRunConfig(rc))
	}
	if deps.store != nil {
		opts = append(opts, service.WithStorage(deps.store, deps.store))
	}
	return opts
}
