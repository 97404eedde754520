package api

import (
	"fmt"
	"net/http"
	"strconv"

	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
)

// ResultsHandler serves read-only views of published results.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleRanking handles GET /roles/{role}/ranking?limit=&page=&q=.
func (h *ResultsHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.Ranking(r.Context(), r.PathValue("role"), service.RankingQuery{
		Page:  page,
		Size:  limit,
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleEmployee handles GET /roles/{role}/employees/{id}.
func (h *ResultsHandler) HandleEmployee(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.EmployeeResult(r.Context(), r.PathValue("role"), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePattern handles GET /roles/{role}/pattern?top_quantile=.
func (h *ResultsHandler) HandlePattern(w http.ResponseWriter, r *http.Request) {
	var q float64
	if raw := r.URL.Query().Get("top_quantile"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeServiceError(w, fmt.Errorf("%w: top_quantile must be a number", ErrBadRequest))
			return
		}
		q = v
	}
	p, err := h.deps.Pattern(r.Context(), r.PathValue("role"), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePerformanceGap handles GET /roles/{role}/performance-gap.
func (h *ResultsHandler) HandlePerformanceGap(w http.ResponseWriter, r *http.Request) {
	rating, err := queryInt(r, "rating")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	g, err := h.deps.PerformanceGap(r.Context(), r.PathValue("role"), rating)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleNarrative handles POST /roles/{role}/narrative.
func (h *ResultsHandler) HandleNarrative(w http.ResponseWriter, r *http.Request) {
	var req service.NarrativeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.deps.Narrative(r.Context(), r.PathValue("role"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
