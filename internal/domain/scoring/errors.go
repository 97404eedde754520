package scoring

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrMissingVariable = errors.New("missing variable")
	ErrInvalidPolicy   = errors.New("invalid missing-data policy")
	ErrInvalidScale    = errors.New("output scale must be finite and positive")
	ErrUnknownRule     = errors.New("unknown aggregation rule")
	ErrNonFiniteValue  = errors.New("value is not finite")
	ErrZeroWeight      = errors.New("role weights sum to zero")
)

// MissingVariableError reports an employee lacking a value the role requires.
// It is raised under the fail policy, and under impute-mean when no employee
// of the batch carries the variable.
type MissingVariableError struct {
	EmployeeID    string
	Variable      string
	NoCohortValue bool
}

func (e *MissingVariableError) Error() string {
	if e.NoCohortValue {
		return fmt.Sprintf("employee %q: variable %q is missing and no cohort value exists to impute", e.EmployeeID, e.Variable)
	}
	return fmt.Sprintf("employee %q: variable %q is missing", e.EmployeeID, e.Variable)
}

// Is matches ErrMissingVariable.
func (e *MissingVariableError) Is(target error) bool { return target == ErrMissingVariable }
