package registry

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. Typed errors below match them with errors.Is.
var (
	ErrUnknownRole         = errors.New("unknown role")
	ErrUnknownVariable     = errors.New("unknown variable")
	ErrDuplicateVariable   = errors.New("duplicate variable")
	ErrWeightSum           = errors.New("weights do not sum to the configured total")
	ErrConflictingVariable = errors.New("variable redefined with a different range or rule")
	ErrInvalidVariable     = errors.New("invalid variable")
	ErrInvalidRole         = errors.New("invalid role")
)

// UnknownRoleError is returned by Resolve for a role that was never registered.
type UnknownRoleError struct {
	RoleID string
}

func (e *UnknownRoleError) Error() string { return fmt.Sprintf("unknown role %q", e.RoleID) }

// Is matches ErrUnknownRole.
func (e *UnknownRoleError) Is(target error) bool { return target == ErrUnknownRole }

// UnknownVariableError is returned when a role references an undefined variable.
type UnknownVariableError struct {
	RoleID   string
	Variable string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("role %q references unknown variable %q", e.RoleID, e.Variable)
}

// Is matches ErrUnknownVariable.
func (e *UnknownVariableError) Is(target error) bool { return target == ErrUnknownVariable }

// DuplicateVariableError is returned when a role lists a variable twice.
type DuplicateVariableError struct {
	RoleID   string
	Variable string
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("role %q lists variable %q more than once", e.RoleID, e.Variable)
}

// Is matches ErrDuplicateVariable.
func (e *DuplicateVariableError) Is(target error) bool { return target == ErrDuplicateVariable }

// WeightSumError is returned when a role's weights miss the configured total.
type WeightSumError struct {
	RoleID    string
	Sum       float64
	Expected  float64
	Tolerance float64
}

func (e *WeightSumError) Error() string {
	return fmt.Sprintf("role %q weights sum to %g, expected %g (relative tolerance %g)", e.RoleID, e.Sum, e.Expected, e.Tolerance)
}

// Is matches ErrWeightSum.
func (e *WeightSumError) Is(target error) bool { return target == ErrWeightSum }
