// Package api serves the talent match HTTP JSON API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. *service.Service satisfies it.
type Dependencies interface {
	StatsProvider

	DefineVariables(ctx context.Context, vars []model.Variable) error
	Variables() []model.Variable
	RegisterRole(ctx context.Context, rec loader.RoleRecord) (model.RoleProfile, error)
	Role(roleID string) (model.RoleProfile, error)
	Roles() []model.RoleProfile

	ScoreInline(ctx context.Context, roleID string, records []loader.EmployeeRecord, policy string) (service.Evaluation, error)
	SubmitRun(ctx context.Context, roleID, policy, idempotencyKey string) (model.RunStatus, bool, error)
	GetRun(id string) (model.RunStatus, error)

	Ranking(ctx context.Context, roleID string, q service.RankingQuery) (service.RankingPage, error)
	EmployeeResult(ctx context.Context, roleID, employeeID string) (model.MatchResult, error)
	Pattern(ctx context.Context, roleID string, topQuantile float64) (model.SuccessPattern, error)
	PerformanceGap(ctx context.Context, roleID string, highRating int) (model.PerformanceGap, error)
	Narrative(ctx context.Context, roleID string, req service.NarrativeRequest) (narrative.Narrative, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	rolesHandler   *RolesHandler
	scoringHandler *ScoringHandler
	resultsHandler *ResultsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		rolesHandler:   NewRolesHandler(deps),
		scoringHandler: NewScoringHandler(deps),
		resultsHandler: NewResultsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /variables", MetricsMiddleware(s.rolesHandler.HandleListVariables, "variables"))
	mux.HandleFunc("POST /variables", MetricsMiddleware(s.rolesHandler.HandleDefineVariables, "variables"))
	mux.HandleFunc("GET /roles", MetricsMiddleware(s.rolesHandler.HandleListRoles, "roles"))
	mux.HandleFunc("POST /roles", MetricsMiddleware(s.rolesHandler.HandleRegisterRole, "roles"))
	mux.HandleFunc("GET /roles/{role}", MetricsMiddleware(s.rolesHandler.HandleGetRole, "role"))

	mux.HandleFunc("POST /roles/{role}/score", MetricsMiddleware(s.scoringHandler.HandleScore, "score"))
	mux.HandleFunc("POST /roles/{role}/runs", MetricsMiddleware(s.scoringHandler.HandleSubmitRun, "runs"))
	mux.HandleFunc("GET /runs/{id}", MetricsMiddleware(s.scoringHandler.HandleGetRun, "run"))

	mux.HandleFunc("GET /roles/{role}/ranking", MetricsMiddleware(s.resultsHandler.HandleRanking, "ranking"))
	mux.HandleFunc("GET /roles/{role}/employees/{id}", MetricsMiddleware(s.resultsHandler.HandleEmployee, "employee"))
	mux.HandleFunc("GET /roles/{role}/pattern", MetricsMiddleware(s.resultsHandler.HandlePattern, "pattern"))
	mux.HandleFunc("GET /roles/{role}/performance-gap", MetricsMiddleware(s.resultsHandler.HandlePerformanceGap, "performance_gap"))
	mux.HandleFunc("POST /roles/{role}/narrative", MetricsMiddleware(s.resultsHandler.HandleNarrative, "narrative"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps err to a status via statusFor.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body. Numbers stay json.Number so the loader
// sees them exactly. An empty body leaves v untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, key)
	}
	return n, nil
}
