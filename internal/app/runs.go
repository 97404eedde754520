package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/mq/queue"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

// Evaluation is the outcome of scoring one cohort against one role version.
type Evaluation struct {
	RunID       string                    `json:"run_id"`
	RoleID      string                    `json:"role_id"`
	RoleVersion int                       `json:"role_version"`
	Ranked      []model.MatchResult       `json:"ranked"`
	Failures    []scoring.Failure         `json:"-"`
	Rejected    []*loader.ValidationError `json:"-"`
	Cancelled   bool                      `json:"cancelled"`
	Pattern     *model.SuccessPattern     `json:"pattern,omitempty"`
	PatternErr  error                     `json:"-"`
}

// ScoreInline scores the given records synchronously and publishes the ranking.
// policy overrides the default missing-data policy when set.
func (s *Service) ScoreInline(ctx context.Context, roleID string, records []loader.EmployeeRecord, policy string) (Evaluation, error) {
	profile, err := s.registry.Resolve(roleID)
	if err != nil {
		return Evaluation{}, err
	}
	cfg, err := s.runConfigFor(policy)
	if err != nil {
		return Evaluation{}, err
	}
	return s.evaluate(ctx, uuid.NewString(), profile, records, cfg)
}

// evaluate runs load → score → rank → publish → persist → pattern for one cohort.
func (s *Service) evaluate(ctx context.Context, runID string, profile model.RoleProfile, records []loader.EmployeeRecord, cfg scoring.RunConfig) (Evaluation, error) {
	start := time.Now()
	log := s.logger.Named("run")

	batch := loader.LoadEmployees(records)
	metrics.RecordIngest(len(batch.Profiles), len(batch.Rejected))
	if len(batch.Profiles) == 0 {
		metrics.RecordRun("rejected", float64(time.Since(start).Milliseconds()))
		if err := batch.Err(); err != nil {
			return Evaluation{Rejected: batch.Rejected}, fmt.Errorf("%w: %w", ErrNoEmployees, err)
		}
		return Evaluation{}, ErrNoEmployees
	}

	engine := scoring.NewEngine(cfg, scoring.WithRules(s.rules), scoring.WithConcurrency(s.scoreConcurrency))
	res, err := engine.ScoreBatch(ctx, profile, batch.Profiles)
	if err != nil {
		metrics.RecordRun("error", float64(time.Since(start).Milliseconds()))
		return Evaluation{}, err
	}
	for _, f := range res.Failures {
		metrics.RecordScoringFailure(failureKind(f.Err))
	}

	ev := Evaluation{
		RunID:       runID,
		RoleID:      profile.ID,
		RoleVersion: profile.Version,
		Ranked:      ranking.Rank(res.Results),
		Failures:    res.Failures,
		Rejected:    batch.Rejected,
		Cancelled:   res.Cancelled,
	}
	if res.Cancelled {
		// a partial cohort must never replace a published ranking
		metrics.RecordRun("cancelled", float64(time.Since(start).Milliseconds()))
		return ev, ctx.Err()
	}

	for _, r := range ev.Ranked {
		metrics.RecordMatchResult(r.FinalMatchRate)
	}
	if err := s.store.Publish(ctx, profile.ID, profile.Version, ev.Ranked); err != nil {
		metrics.RecordRun("error", float64(time.Since(start).Milliseconds()))
		return ev, fmt.Errorf("publish ranking: %w", err)
	}
	idx := ranking.IndexProfiles(batch.Profiles)
	s.mu.Lock()
	s.profiles[profile.ID] = idx
	s.mu.Unlock()
	s.cache.Invalidate(ctx, profile.ID)

	if s.sink != nil {
		if err := s.sink.Persist(ctx, ev.Ranked); err != nil {
			log.Warn(ctx, "results not persisted", logger.String("role", profile.ID), logger.Error(err))
		}
	}

	pattern, err := ranking.ExtractPattern(profile, ev.Ranked, idx, s.patternOpts)
	if err != nil {
		metrics.RecordPatternExtraction("insufficient_data")
		ev.PatternErr = err
	} else {
		metrics.RecordPatternExtraction("success")
		ev.Pattern = &pattern
		if s.sink != nil {
			if err := s.sink.PersistPattern(ctx, pattern); err != nil {
				log.Warn(ctx, "pattern not persisted", logger.String("role", profile.ID), logger.Error(err))
			}
		}
	}

	metrics.RecordRun("success", float64(time.Since(start).Milliseconds()))
	log.Info(ctx, "run finished",
		logger.String("run_id", runID),
		logger.String("role", profile.ID),
		logger.Int("version", profile.Version),
		logger.Int("scored", len(ev.Ranked)),
		logger.Int("failed", len(ev.Failures)),
		logger.Int("rejected", len(ev.Rejected)),
	)
	return ev, nil
}

// SubmitRun enqueues an asynchronous run of roleID against the stored cohort.
// A repeated idempotency key returns the run it first produced with duplicate set.
func (s *Service) SubmitRun(ctx context.Context, roleID, policy, idempotencyKey string) (status model.RunStatus, duplicate bool, err error) {
	if s.source == nil {
		return model.RunStatus{}, false, ErrNoStorage
	}
	if _, err := s.runConfigFor(policy); err != nil {
		return model.RunStatus{}, false, err
	}

	runID := uuid.NewString()
	if idempotencyKey != "" {
		if existing, seen := s.deduper.Claim(ctx, idempotencyKey, runID); seen {
			if st, err := s.GetRun(existing); err == nil {
				return st, true, nil
			}
		}
	}

	req := model.RunRequest{
		RunID:          runID,
		RoleID:         roleID,
		Policy:         policy,
		IdempotencyKey: idempotencyKey,
		SubmittedAt:    time.Now().UTC(),
	}
	st := &model.RunStatus{RunID: runID, RoleID: roleID, State: model.RunQueued, SubmittedAt: req.SubmittedAt}
	s.mu.Lock()
	s.runs[runID] = st
	s.mu.Unlock()

	if err := s.runQueue.Enqueue(ctx, req); err != nil {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
		if idempotencyKey != "" {
			s.deduper.Release(ctx, idempotencyKey)
		}
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return model.RunStatus{}, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.RunStatus{}, false, err
	}
	s.logger.Debug(ctx, "run queued", logger.String("run_id", runID), logger.String("role", roleID))
	return *st, false, nil
}

// ProcessRun executes a queued run. It is the worker pool's processor.
func (s *Service) ProcessRun(ctx context.Context, req model.RunRequest) error {
	now := time.Now().UTC()
	s.updateRun(req.RunID, func(st *model.RunStatus) {
		st.State = model.RunRunning
		st.StartedAt = &now
	})

	ev, err := s.runFromStorage(ctx, req)

	finished := time.Now().UTC()
	s.updateRun(req.RunID, func(st *model.RunStatus) {
		st.FinishedAt = &finished
		st.RoleVersion = ev.RoleVersion
		st.Scored = len(ev.Ranked)
		st.Failed = len(ev.Failures)
		st.Rejected = len(ev.Rejected)
		switch {
		case err == nil:
			st.State = model.RunSucceeded
		case ev.Cancelled || errors.Is(err, context.Canceled):
			st.State = model.RunCancelled
			st.Error = err.Error()
		default:
			st.State = model.RunFailed
			st.Error = err.Error()
		}
	})
	if err != nil && req.IdempotencyKey != "" {
		s.deduper.Release(ctx, req.IdempotencyKey)
	}
	return err
}

func (s *Service) runFromStorage(ctx context.Context, req model.RunRequest) (Evaluation, error) {
	cfg, err := s.runConfigFor(req.Policy)
	if err != nil {
		return Evaluation{}, err
	}
	profile, err := s.registry.Resolve(req.RoleID)
	if err != nil {
		rec, ferr := s.source.FetchRoleDefinition(ctx, req.RoleID)
		if ferr != nil {
			return Evaluation{}, errors.Join(err, ferr)
		}
		if profile, err = s.register(rec); err != nil {
			return Evaluation{}, err
		}
	}
	records, err := s.source.FetchEmployees(ctx, req.RoleID)
	if err != nil {
		return Evaluation{}, fmt.Errorf("fetch employees: %w", err)
	}
	return s.evaluate(ctx, req.RunID, profile, records, cfg)
}

func (s *Service) updateRun(id string, fn func(*model.RunStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.runs[id]; ok {
		fn(st)
	}
}

// GetRun returns the status of a submitted run.
func (s *Service) GetRun(id string) (model.RunStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.runs[id]
	if !ok {
		return model.RunStatus{}, ErrRunNotFound
	}
	return *st, nil
}
