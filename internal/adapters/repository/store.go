// Package repository holds the published ranking of every role.
package repository

import (
	"context"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Store provides read/write access to published rankings.
type Store interface {
	// Publish replaces the ranking of a role with results scored against version.
	// Readers observe either the previous ranking or the new one, never a mix.
	Publish(ctx context.Context, roleID string, version int, results []model.MatchResult) error

	// Rank returns the ranked result of one employee.
	// Returns ErrRoleNotPublished or ErrNotFound.
	Rank(ctx context.Context, roleID, employeeID string) (model.MatchResult, error)

	// TopN returns the first n results in rank order.
	TopN(ctx context.Context, roleID string, n int) ([]model.MatchResult, error)

	// Slice returns up to limit results starting at a 0-based rank position.
	Slice(ctx context.Context, roleID string, offset, limit int) ([]model.MatchResult, error)

	// All returns the whole ranking of a role.
	All(ctx context.Context, roleID string) ([]model.MatchResult, error)

	// Version returns the role version of the published ranking.
	Version(ctx context.Context, roleID string) (int, error)

	// Count returns the number of ranked employees of a role, 0 when unpublished.
	Count(ctx context.Context, roleID string) int
}
