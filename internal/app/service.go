// Package service wires the scoring domain to storage, cache, queue and
// narrative adapters and exposes the operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/multierr"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/cache"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/mq/queue"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/mq/worker"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/repository"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/storage"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/dedupe"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/registry"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

// Optional storage capabilities, detected on the configured Source.
type (
	roleWriter   interface{ SaveRole(context.Context, loader.RoleRecord) error }
	roleCatalog  interface{ RoleIDs(context.Context) ([]string, error) }
	resultReader interface{ FetchResults(context.Context, string) ([]model.MatchResult, error) }
)

// Service implements the talent match operations.
type Service struct {
	mu sync.RWMutex

	registry *registry.Registry
	rules    *scoring.Rules
	store    repository.Store
	deduper  dedupe.Deduper
	runQueue *queue.InMemoryQueue
	pool     *worker.Pool
	cache    cache.Cache
	narrator narrative.Narrator
	source   storage.Source
	sink     storage.Sink

	workerCount      int
	queueSize        int
	dedupeSize       int
	scoreConcurrency int
	maxRankingLimit  int
	runConfig        scoring.RunConfig
	patternOpts      ranking.Options
	registryOpts     []registry.Option

	// last scored cohort per role, for search and strengths themes
	profiles map[string]map[string]model.EmployeeProfile
	runs     map[string]*model.RunStatus

	started bool
	logger  logger.Logger
}

// New constructs a Service. Domain components are ready immediately;
// Start launches the run workers.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU(),
		queueSize:        1000,
		dedupeSize:       10_000,
		scoreConcurrency: 1,
		maxRankingLimit:  100,
		runConfig:        scoring.DefaultRunConfig(),
		cache:            cache.Nop{},
		narrator:         narrative.Disabled{},
		profiles:         make(map[string]map[string]model.EmployeeProfile),
		runs:             make(map[string]*model.RunStatus),
		logger:           logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rules = scoring.DefaultRules()
	regOpts := append([]registry.Option{registry.WithRuleValidator(s.rules.Validate)}, s.registryOpts...)
	s.registry = registry.New(regOpts...)
	if s.store == nil {
		s.store = repository.NewTreapStore(repository.WithMaxLimit(max(s.maxRankingLimit, 1000)))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.runQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	return s
}

// Start restores state from storage and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting talent match service...")
	if err := s.restore(ctx); err != nil {
		s.logger.Warn(ctx, "restore from storage incomplete", logger.Error(err))
	}

	s.pool = worker.NewPool(s.workerCount, s.runQueue, worker.ProcessorFunc(s.ProcessRun), s.logger)
	s.pool.Start(ctx)

	s.logger.Info(ctx, "talent match service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("roles", s.registry.Len()),
	)
	return nil
}

// Stop drains pending runs and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping talent match service...")
	var err error
	if pool != nil {
		err = pool.Shutdown(ctx)
	}
	s.logger.Info(ctx, "talent match service stopped")
	return err
}

// restore registers stored roles and republishes their stored rankings.
func (s *Service) restore(ctx context.Context) error {
	catalog, ok := s.source.(roleCatalog)
	if !ok {
		return nil
	}
	ids, err := catalog.RoleIDs(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	var errs error
	for _, id := range ids {
		rec, err := s.source.FetchRoleDefinition(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		profile, err := s.register(rec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("role %s: %w", id, err))
			continue
		}
		if reader, ok := s.source.(resultReader); ok {
			results, err := reader.FetchResults(ctx, id)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if len(results) == 0 {
				continue
			}
			// versions restart with the process; the stored definition is the one just registered
			for i := range results {
				results[i].RoleVersion = profile.Version
			}
			errs = multierr.Append(errs, s.store.Publish(ctx, id, profile.Version, ranking.Rank(results)))
		}
	}

	if len(ids) > 0 {
		records, err := s.source.FetchEmployees(ctx, "")
		if err != nil {
			return multierr.Append(errs, err)
		}
		batch := loader.LoadEmployees(records)
		idx := ranking.IndexProfiles(batch.Profiles)
		s.mu.Lock()
		for _, id := range ids {
			s.profiles[id] = idx
		}
		s.mu.Unlock()
	}

	s.logger.Info(ctx, "restored roles from storage", logger.Int("roles", len(ids)))
	return errs
}

// DefineVariables adds variables to the registry arena. Every failure is reported.
func (s *Service) DefineVariables(ctx context.Context, vars []model.Variable) error {
	var errs error
	for _, v := range vars {
		if err := s.registry.Define(v); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		s.logger.Warn(ctx, "variable definition rejected", logger.Error(errs))
	}
	return errs
}

// Variables lists the arena.
func (s *Service) Variables() []model.Variable {
	return s.registry.Variables()
}

// RegisterRole validates a role record, defines its variables and registers its weights.
// Re-registering bumps the role version.
func (s *Service) RegisterRole(ctx context.Context, rec loader.RoleRecord) (model.RoleProfile, error) {
	profile, err := s.register(rec)
	if err != nil {
		return model.RoleProfile{}, err
	}
	if w, ok := s.source.(roleWriter); ok {
		if err := w.SaveRole(ctx, rec); err != nil {
			s.logger.Warn(ctx, "role not persisted", logger.String("role", profile.ID), logger.Error(err))
		}
	}
	s.cache.Invalidate(ctx, profile.ID)
	s.logger.Info(ctx, "role registered",
		logger.String("role", profile.ID),
		logger.Int("version", profile.Version),
		logger.Int("variables", len(profile.Variables)),
	)
	return profile, nil
}

func (s *Service) register(rec loader.RoleRecord) (model.RoleProfile, error) {
	def, err := loader.LoadRole(rec)
	if err != nil {
		return model.RoleProfile{}, err
	}
	var errs error
	for _, v := range def.Variables {
		errs = multierr.Append(errs, s.registry.Define(v))
	}
	if errs != nil {
		return model.RoleProfile{}, errs
	}
	profile, err := s.registry.Register(def.Spec, def.Weights)
	if err != nil {
		return model.RoleProfile{}, err
	}
	metrics.UpdateRolesRegistered(s.registry.Len())
	return profile, nil
}

// Role returns the frozen profile of a role.
func (s *Service) Role(roleID string) (model.RoleProfile, error) {
	return s.registry.Resolve(roleID)
}

// Roles lists registered roles ordered by id.
func (s *Service) Roles() []model.RoleProfile {
	return s.registry.Roles()
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	runs := len(s.runs)
	s.mu.RUnlock()

	ranked := make(map[string]int)
	for _, p := range s.registry.Roles() {
		ranked[p.ID] = s.store.Count(ctx, p.ID)
	}
	queueLen := s.runQueue.Len()
	metrics.UpdateQueueSize(queueLen)

	return map[string]any{
		"started":        started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"queueLength":    queueLen,
		"dedupeKeys":     s.deduper.Size(),
		"roles":          s.registry.Len(),
		"variables":      len(s.registry.Variables()),
		"rankedByRole":   ranked,
		"runsTracked":    runs,
		"missingPolicy":  string(s.runConfig.Policy()),
		"outputScale":    s.runConfig.Scale(),
		"storageEnabled": s.source != nil,
	}
}

// runConfigFor applies an optional policy override.
func (s *Service) runConfigFor(policy string) (scoring.RunConfig, error) {
	if policy == "" {
		return s.runConfig, nil
	}
	p, err := scoring.ParsePolicy(policy)
	if err != nil {
		return scoring.RunConfig{}, err
	}
	return s.runConfig.WithPolicy(p)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, scoring.ErrMissingVariable):
		return "missing_variable"
	case errors.Is(err, scoring.ErrNonFiniteValue):
		return "non_finite"
	default:
		return "other"
	}
}
