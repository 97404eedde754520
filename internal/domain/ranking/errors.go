package ranking

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidQuantile  = errors.New("top quantile must be in (0, 1]")
	ErrInvalidRating    = errors.New("high rating must be between 1 and 5")
)

// InsufficientDataError blocks pattern extraction for a role. Scoring results are unaffected.
type InsufficientDataError struct {
	RoleID string
	Have   int
	Need   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("role %q: %s", e.RoleID, e.Reason)
	}
	return fmt.Sprintf("role %q: %d scored employees, need at least %d", e.RoleID, e.Have, e.Need)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }
