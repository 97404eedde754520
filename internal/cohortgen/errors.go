package cohortgen

import "errors"

var (
	// ErrInvalidRole is returned when a role has nothing to generate values for.
	ErrInvalidRole = errors.New("role has no variables")
	// ErrUnexpectedStatus is returned when the server answers with an unexpected status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrInconsistentRanking is returned when a fetched ranking breaks ordering.
	ErrInconsistentRanking = errors.New("inconsistent ranking")
)
