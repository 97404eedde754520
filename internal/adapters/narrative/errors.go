package narrative

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBrief is returned when a brief cannot be sent to a provider.
	ErrInvalidBrief = errors.New("invalid narrative brief")
	// ErrEmptyResponse is returned when a provider answers with no text.
	ErrEmptyResponse = errors.New("empty narrative response")
	// ErrNoProvider is returned by an empty fallback chain.
	ErrNoProvider = errors.New("no narrative provider configured")
)

// ProviderError wraps a failure from a single provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("narrative provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
