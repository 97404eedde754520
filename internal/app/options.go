package service

import (
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/cache"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/repository"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/storage"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/registry"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of run workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending runs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithScoreConcurrency sets how many employees of one batch are scored in parallel.
func WithScoreConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scoreConcurrency = n
		}
	}
}

// WithRunConfig sets the default missing-data policy and output scale.
func WithRunConfig(cfg scoring.RunConfig) Option {
	return func(s *Service) {
		if cfg.Scale() > 0 {
			s.runConfig = cfg
		}
	}
}

// WithPatternOptions sets the default top quantile and minimum cohort.
func WithPatternOptions(opts ranking.Options) Option {
	return func(s *Service) {
		s.patternOpts = opts
	}
}

// WithMaxRankingLimit caps the page size of ranking reads.
func WithMaxRankingLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRankingLimit = n
		}
	}
}

// WithRegistryOptions configures the TGV registry.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(s *Service) {
		s.registryOpts = append(s.registryOpts, opts...)
	}
}

// WithStorage wires the storage collaborator. Either side may be nil.
func WithStorage(src storage.Source, sink storage.Sink) Option {
	return func(s *Service) {
		s.source = src
		s.sink = sink
	}
}

// WithCache sets the ranking cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithNarrator sets the narrative collaborator.
func WithNarrator(n narrative.Narrator) Option {
	return func(s *Service) {
		if n != nil {
			s.narrator = n
		}
	}
}

// WithStore replaces the in-memory ranked-result store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
