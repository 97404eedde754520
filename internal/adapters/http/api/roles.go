package api

import (
	"net/http"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// RolesHandler manages variables and role profiles.
type RolesHandler struct {
	deps Dependencies
}

// NewRolesHandler creates a new roles handler.
func NewRolesHandler(deps Dependencies) *RolesHandler {
	return &RolesHandler{deps: deps}
}

type variableRequest struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Rule  string  `json:"rule,omitempty"`
	Group string  `json:"group,omitempty"`
}

type defineVariablesRequest struct {
	Variables []variableRequest `json:"variables"`
}

// HandleDefineVariables handles POST /variables.
func (h *RolesHandler) HandleDefineVariables(w http.ResponseWriter, r *http.Request) {
	var req defineVariablesRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeServiceError(w, err)
		return
	}
	if len(req.Variables) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	vars := make([]model.Variable, len(req.Variables))
	for i, v := range req.Variables {
		vars[i] = model.Variable{Name: v.Name, Range: model.Range{Min: v.Min, Max: v.Max}, Rule: v.Rule, Group: v.Group}
	}
	if err := h.deps.DefineVariables(r.Context(), vars); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"defined": len(vars)})
}

// HandleListVariables handles GET /variables.
func (h *RolesHandler) HandleListVariables(w http.ResponseWriter, _ *http.Request) {
	vars := h.deps.Variables()
	if vars == nil {
		vars = []model.Variable{}
	}
	writeJSON(w, http.StatusOK, vars)
}

// HandleRegisterRole handles POST /roles.
func (h *RolesHandler) HandleRegisterRole(w http.ResponseWriter, r *http.Request) {
	var rec loader.RoleRecord
	if err := decodeJSON(w, r, &rec, false); err != nil {
		writeServiceError(w, err)
		return
	}
	profile, err := h.deps.RegisterRole(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// HandleListRoles handles GET /roles.
func (h *RolesHandler) HandleListRoles(w http.ResponseWriter, _ *http.Request) {
	roles := h.deps.Roles()
	if roles == nil {
		roles = []model.RoleProfile{}
	}
	writeJSON(w, http.StatusOK, roles)
}

// HandleGetRole handles GET /roles/{role}.
func (h *RolesHandler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	profile, err := h.deps.Role(r.PathValue("role"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
