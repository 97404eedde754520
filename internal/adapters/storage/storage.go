// Package storage is the relational storage collaborator: it supplies raw employee
// and role records and persists match results and success patterns.
package storage

import (
	"context"
	"errors"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Sentinel errors of the storage collaborator.
var (
	ErrRoleNotFound      = errors.New("role definition not found")
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// Source reads raw records.
type Source interface {
	// FetchEmployees returns the cohort scored against a role, ordered by employee id.
	FetchEmployees(ctx context.Context, roleID string) ([]loader.EmployeeRecord, error)
	// FetchRoleDefinition returns the stored definition of a role or ErrRoleNotFound.
	FetchRoleDefinition(ctx context.Context, roleID string) (loader.RoleRecord, error)
}

// Sink writes derived entities.
type Sink interface {
	// Persist replaces the stored results of every role present in results.
	Persist(ctx context.Context, results []model.MatchResult) error
	// PersistPattern replaces the stored success pattern of a role.
	PersistPattern(ctx context.Context, pattern model.SuccessPattern) error
}
