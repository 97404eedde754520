package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

// RankingQuery selects a page of a role's ranking.
type RankingQuery struct {
	Page  int
	Size  int
	Query string
}

// RankingPage is one page of a ranking.
type RankingPage struct {
	RoleID      string              `json:"role_id"`
	RoleVersion int                 `json:"role_version"`
	Query       string              `json:"query,omitempty"`
	Results     []model.MatchResult `json:"results"`
	Page        ranking.Page        `json:"page"`
}

// ranked returns the published ranking of a role, reading through the cache.
func (s *Service) ranked(ctx context.Context, roleID string) ([]model.MatchResult, int, error) {
	if _, err := s.registry.Resolve(roleID); err != nil {
		return nil, 0, err
	}
	version, err := s.store.Version(ctx, roleID)
	if err != nil {
		return nil, 0, err
	}
	if cached, ok := s.cache.GetRanking(ctx, roleID, version); ok {
		return cached, version, nil
	}
	all, err := s.store.All(ctx, roleID)
	if err != nil {
		return nil, 0, err
	}
	s.cache.SetRanking(ctx, roleID, version, all)
	return all, version, nil
}

func (s *Service) profileIndex(roleID string) map[string]model.EmployeeProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[roleID]
}

// Ranking returns a searched and paginated view of a role's published ranking.
func (s *Service) Ranking(ctx context.Context, roleID string, q RankingQuery) (RankingPage, error) {
	all, version, err := s.ranked(ctx, roleID)
	if err != nil {
		return RankingPage{}, err
	}
	size := q.Size
	if size <= 0 {
		size = ranking.DefaultPageSize
	}
	size = min(size, s.maxRankingLimit)

	list := all
	if q.Query != "" {
		list = ranking.Search(all, s.profileIndex(roleID), q.Query)
	}
	page, meta := ranking.Paginate(list, q.Page, size)
	return RankingPage{
		RoleID:      roleID,
		RoleVersion: version,
		Query:       q.Query,
		Results:     page,
		Page:        meta,
	}, nil
}

// EmployeeResult returns one employee's ranked result with contributions.
func (s *Service) EmployeeResult(ctx context.Context, roleID, employeeID string) (model.MatchResult, error) {
	if _, err := s.registry.Resolve(roleID); err != nil {
		return model.MatchResult{}, err
	}
	return s.store.Rank(ctx, roleID, employeeID)
}

// Employee returns the profile last scored for a role.
func (s *Service) Employee(roleID, employeeID string) (model.EmployeeProfile, bool) {
	p, ok := s.profileIndex(roleID)[employeeID]
	return p, ok
}

// Pattern extracts the success pattern of a role's published ranking.
// topQuantile 0 uses the configured default.
func (s *Service) Pattern(ctx context.Context, roleID string, topQuantile float64) (model.SuccessPattern, error) {
	opts := s.patternOpts
	if topQuantile != 0 {
		opts.TopQuantile = topQuantile
	}
	if opts.TopQuantile == 0 {
		opts.TopQuantile = ranking.DefaultTopQuantile
	}

	profile, err := s.registry.Resolve(roleID)
	if err != nil {
		return model.SuccessPattern{}, err
	}
	all, version, err := s.ranked(ctx, roleID)
	if err != nil {
		return model.SuccessPattern{}, err
	}
	if version != profile.Version {
		// the role was re-registered after the ranking was published
		profile = publishedProfile(profile, version, all)
	}
	if cached, ok := s.cache.GetPattern(ctx, roleID, version, opts.TopQuantile); ok {
		return cached, nil
	}

	pattern, err := ranking.ExtractPattern(profile, all, s.profileIndex(roleID), opts)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ranking.ErrInsufficientData) {
			outcome = "insufficient_data"
		}
		metrics.RecordPatternExtraction(outcome)
		return model.SuccessPattern{}, err
	}
	metrics.RecordPatternExtraction("success")
	s.cache.SetPattern(ctx, pattern)
	return pattern, nil
}

// PerformanceGap compares the employees of a role's published cohort rated
// highRating with the other rated employees. highRating 0 uses the default.
func (s *Service) PerformanceGap(ctx context.Context, roleID string, highRating int) (model.PerformanceGap, error) {
	profile, err := s.registry.Resolve(roleID)
	if err != nil {
		return model.PerformanceGap{}, err
	}
	all, version, err := s.ranked(ctx, roleID)
	if err != nil {
		return model.PerformanceGap{}, err
	}
	if version != profile.Version {
		profile = publishedProfile(profile, version, all)
	}

	gap, err := ranking.PerformanceGap(profile, s.profileIndex(roleID), highRating)
	if err != nil {
		s.logger.Debug(ctx, "performance gap unavailable", logger.String("role", roleID), logger.Error(err))
		return model.PerformanceGap{}, err
	}
	return gap, nil
}

// publishedProfile rebuilds the variable list a published ranking was scored
// with from its contributions.
func publishedProfile(current model.RoleProfile, version int, results []model.MatchResult) model.RoleProfile {
	p := current
	p.Version = version
	if len(results) == 0 {
		return p
	}
	p.Variables = make([]model.WeightedVariable, 0, len(results[0].Contributions))
	p.WeightTotal = 0
	for _, c := range results[0].Contributions {
		p.Variables = append(p.Variables, model.WeightedVariable{
			Variable: model.Variable{Name: c.Variable, Group: c.Group},
			Weight:   c.Weight,
		})
		p.WeightTotal += c.Weight
	}
	return p
}

// NarrativeRequest selects the benchmark employees of a narrative.
type NarrativeRequest struct {
	BenchmarkIDs []string `json:"benchmark_ids"`
	Purpose      string   `json:"purpose,omitempty"`
}

// Narrative generates a job description for a role anchored on benchmark employees.
// The success pattern is included when one can be extracted.
func (s *Service) Narrative(ctx context.Context, roleID string, req NarrativeRequest) (narrative.Narrative, error) {
	profile, err := s.registry.Resolve(roleID)
	if err != nil {
		return narrative.Narrative{}, err
	}
	brief := narrative.Brief{
		RoleID:    profile.ID,
		RoleName:  profile.Name,
		JobLevel:  profile.JobLevel,
		Purpose:   profile.Purpose,
		Variables: profile.Variables,
	}
	if req.Purpose != "" {
		brief.Purpose = req.Purpose
	}
	for _, id := range req.BenchmarkIDs {
		res, err := s.store.Rank(ctx, roleID, id)
		if err != nil {
			return narrative.Narrative{}, fmt.Errorf("%w: %s: %w", ErrBenchmark, id, err)
		}
		bm := narrative.Benchmark{EmployeeID: id, FullName: id, Result: res}
		if p, ok := s.Employee(roleID, id); ok && p.FullName != "" {
			bm.FullName = p.FullName
		}
		brief.Benchmarks = append(brief.Benchmarks, bm)
	}
	if err := brief.Validate(); err != nil {
		return narrative.Narrative{}, err
	}

	if pattern, err := s.Pattern(ctx, roleID, 0); err == nil {
		brief.Separations = pattern.Variables
	} else {
		s.logger.Debug(ctx, "narrative without success pattern", logger.String("role", roleID), logger.Error(err))
	}

	start := time.Now()
	out, err := s.narrator.Describe(ctx, brief)
	if err != nil {
		metrics.RecordErrorByComponent("narrative", "describe")
		s.logger.Warn(ctx, "narrative failed",
			logger.String("role", roleID),
			logger.Float64("elapsed_ms", float64(time.Since(start).Milliseconds())),
			logger.Error(err),
		)
		return narrative.Narrative{}, err
	}
	return out, nil
}
