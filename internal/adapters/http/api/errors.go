package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/repository"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/registry"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
)

// ErrBadRequest marks malformed requests.
var ErrBadRequest = errors.New("bad request")

// statusClientClosedRequest is written when the client went away mid-request.
const statusClientClosedRequest = 499

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: wrapped errors match the first entry they satisfy.
var errorMappings = []errorMapping{
	{service.ErrBenchmark, http.StatusBadRequest, "bad_request"},
	{service.ErrNoEmployees, http.StatusUnprocessableEntity, "no_employees"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{loader.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{scoring.ErrInvalidPolicy, http.StatusBadRequest, "bad_request"},
	{ranking.ErrInvalidQuantile, http.StatusBadRequest, "bad_request"},
	{ranking.ErrInvalidRating, http.StatusBadRequest, "bad_request"},
	{narrative.ErrInvalidBrief, http.StatusBadRequest, "invalid_brief"},
	{registry.ErrUnknownRole, http.StatusNotFound, "unknown_role"},
	{repository.ErrRoleNotPublished, http.StatusNotFound, "not_ranked"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrRunNotFound, http.StatusNotFound, "not_found"},
	{registry.ErrWeightSum, http.StatusUnprocessableEntity, "invalid_role"},
	{registry.ErrDuplicateVariable, http.StatusUnprocessableEntity, "invalid_role"},
	{registry.ErrUnknownVariable, http.StatusUnprocessableEntity, "invalid_role"},
	{registry.ErrConflictingVariable, http.StatusUnprocessableEntity, "invalid_variable"},
	{registry.ErrInvalidVariable, http.StatusUnprocessableEntity, "invalid_variable"},
	{registry.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role"},
	{scoring.ErrUnknownRule, http.StatusUnprocessableEntity, "invalid_role"},
	{scoring.ErrZeroWeight, http.StatusUnprocessableEntity, "invalid_role"},
	{ranking.ErrInsufficientData, http.StatusUnprocessableEntity, "insufficient_data"},
	{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
	{service.ErrNoStorage, http.StatusServiceUnavailable, "unavailable"},
	{narrative.ErrNoProvider, http.StatusServiceUnavailable, "unavailable"},
}

// statusFor maps a service error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	var pe *narrative.ProviderError
	if errors.As(err, &pe) {
		return http.StatusBadGateway, "narrative_error"
	}
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}
