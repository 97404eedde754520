package api

import (
	"net/http"
	"strings"

	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// IdempotencyKeyHeader deduplicates run submissions.
const IdempotencyKeyHeader = "Idempotency-Key"

// ScoringHandler handles synchronous scoring and asynchronous runs.
type ScoringHandler struct {
	deps Dependencies
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(deps Dependencies) *ScoringHandler {
	return &ScoringHandler{deps: deps}
}

type scoreRequest struct {
	Policy    string                  `json:"policy,omitempty"`
	Employees []loader.EmployeeRecord `json:"employees"`
}

type failureResponse struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type scoreResponse struct {
	RunID        string                    `json:"run_id"`
	RoleID       string                    `json:"role_id"`
	RoleVersion  int                       `json:"role_version"`
	Ranked       []model.MatchResult       `json:"ranked"`
	Failures     []failureResponse         `json:"failures"`
	Rejected     []*loader.ValidationError `json:"rejected"`
	Pattern      *model.SuccessPattern     `json:"pattern,omitempty"`
	PatternError string                    `json:"pattern_error,omitempty"`
}

func newScoreResponse(ev service.Evaluation) scoreResponse {
	resp := scoreResponse{
		RunID:       ev.RunID,
		RoleID:      ev.RoleID,
		RoleVersion: ev.RoleVersion,
		Ranked:      ev.Ranked,
		Failures:    make([]failureResponse, len(ev.Failures)),
		Rejected:    ev.Rejected,
		Pattern:     ev.Pattern,
	}
	for i, f := range ev.Failures {
		resp.Failures[i] = failureResponse{EmployeeID: f.EmployeeID, Error: f.Err.Error()}
	}
	if resp.Ranked == nil {
		resp.Ranked = []model.MatchResult{}
	}
	if resp.Rejected == nil {
		resp.Rejected = []*loader.ValidationError{}
	}
	if ev.PatternErr != nil {
		resp.PatternError = ev.PatternErr.Error()
	}
	return resp
}

// HandleScore handles POST /roles/{role}/score.
func (h *ScoringHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeServiceError(w, err)
		return
	}
	ev, err := h.deps.ScoreInline(r.Context(), r.PathValue("role"), req.Employees, req.Policy)
	if err != nil {
		status, code := statusFor(err)
		if len(ev.Rejected) > 0 {
			writeJSON(w, status, errorResponse{Code: code, Message: err.Error(), Details: ev.Rejected})
			return
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, newScoreResponse(ev))
}

type runRequest struct {
	Policy string `json:"policy,omitempty"`
}

type runResponse struct {
	model.RunStatus
	Duplicate bool `json:"duplicate"`
}

// HandleSubmitRun handles POST /roles/{role}/runs.
func (h *ScoringHandler) HandleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeServiceError(w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	st, dup, err := h.deps.SubmitRun(r.Context(), r.PathValue("role"), req.Policy, key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusAccepted
	if dup {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/runs/"+st.RunID)
	writeJSON(w, status, runResponse{RunStatus: st, Duplicate: dup})
}

// HandleGetRun handles GET /runs/{id}.
func (h *ScoringHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.GetRun(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
