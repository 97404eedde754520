package cohortgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	percent             = 100
)

// Config holds the settings of a submission run.
type Config struct {
	BaseURL    string        // server base URL
	Timeout    time.Duration // per request
	Policy     string        // missing-data policy override, empty for the server default
	TopN       int           // ranking entries fetched and verified
	OutputFile string        // where the submitted cohort is saved as YAML, empty to skip
}

// Stats summarizes a submission run.
type Stats struct {
	Submitted   int
	Ranked      int
	Rejected    int
	Failed      int
	RoleVersion int
	Verified    int
	Duration    time.Duration
}

// SuccessRate is the share of submitted records that were ranked, in percent.
func (s Stats) SuccessRate() float64 {
	if s.Submitted == 0 {
		return 0
	}
	return float64(s.Ranked) / float64(s.Submitted) * percent
}

// Run registers role, scores records against it and verifies the published ranking.
func Run(ctx context.Context, cfg Config, role loader.RoleRecord, records []loader.EmployeeRecord, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.NewNop()
	}
	start := time.Now()
	stats := Stats{Submitted: len(records)}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting cohort submission",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("role", role.ID),
		logger.Int("employees", len(records)),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	profile, err := client.RegisterRole(ctx, role)
	if err != nil {
		return stats, fmt.Errorf("register role: %w", err)
	}
	log.Info(ctx, "role registered", logger.String("role", profile.ID), logger.Int("version", profile.Version))

	summary, err := client.Score(ctx, role.ID, records, cfg.Policy)
	if err != nil {
		return stats, fmt.Errorf("score cohort: %w", err)
	}
	stats.Ranked = len(summary.Ranked)
	stats.Rejected = len(summary.Rejected)
	stats.Failed = len(summary.Failures)
	stats.RoleVersion = summary.RoleVersion

	topN := cfg.TopN
	if topN <= 0 {
		topN = len(summary.Ranked)
	}
	if topN > 0 {
		page, err := client.Ranking(ctx, role.ID, 1, topN)
		if err != nil {
			return stats, fmt.Errorf("fetch ranking: %w", err)
		}
		if err := VerifyRanking(page.Results, 0); err != nil {
			return stats, err
		}
		if err := VerifyConsistency(summary.Ranked, page.Results); err != nil {
			return stats, err
		}
		stats.Verified = len(page.Results)
	}

	if cfg.OutputFile != "" {
		if err := SaveCohort(cfg.OutputFile, records); err != nil {
			log.Warn(ctx, "failed to save cohort", logger.Error(err))
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "cohort submission finished",
		logger.Int("ranked", stats.Ranked),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Float64("successRate", stats.SuccessRate()),
		logger.String("duration", stats.Duration.String()),
	)
	return stats, nil
}

// SaveCohort writes records as a cohort YAML file, creating parent directories.
func SaveCohort(path string, records []loader.EmployeeRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := loader.EncodeEmployeesYAML(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
