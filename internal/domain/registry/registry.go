// Package registry holds talent group variables and the frozen, weighted
// variable sets of each role.
//
// Variables live in an arena keyed by name. A role keeps only arena indices and
// its own weights, so several roles share a variable with different weights.
// Register builds a new immutable RoleProfile; profiles already handed out by
// Resolve are never touched again.
package registry

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Default registry configuration constants.
const (
	defaultWeightTotal = 1.0
	defaultTolerance   = 1e-6
	defaultRule        = "linear"
)

// RoleSpec describes a role to register.
type RoleSpec struct {
	ID       string
	Name     string
	JobLevel string
	Purpose  string
}

// Weight is the role-scoped weight of one variable.
type Weight struct {
	Variable string  `json:"variable"`
	Weight   float64 `json:"weight"`
}

type weightRef struct {
	slot   int
	weight float64
}

type roleEntry struct {
	spec    RoleSpec
	version int
	weights []weightRef
	profile model.RoleProfile
}

// Registry is the single source of truth for variables and role weights.
// It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	arena        []model.Variable
	byName       map[string]int
	roles        map[string]*roleEntry
	weightTotal  float64
	tolerance    float64
	validateRule func(string) error
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byName:       make(map[string]int),
		roles:        make(map[string]*roleEntry),
		weightTotal:  defaultWeightTotal,
		tolerance:    defaultTolerance,
		validateRule: func(string) error { return nil },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WeightTotal returns the configured weight total.
func (r *Registry) WeightTotal() float64 { return r.weightTotal }

// Define adds a variable to the arena. Defining an identical variable again is a no-op;
// changing its range or rule fails with ErrConflictingVariable. The group may be updated.
func (r *Registry) Define(v model.Variable) error {
	if v.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidVariable)
	}
	if !v.Range.Valid() {
		return fmt.Errorf("%w: %s: range [%g, %g] must be finite with max > min", ErrInvalidVariable, v.Name, v.Range.Min, v.Range.Max)
	}
	if v.Rule == "" {
		v.Rule = defaultRule
	}
	if err := r.validateRule(v.Rule); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidVariable, v.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok := r.byName[v.Name]; ok {
		cur := r.arena[slot]
		if cur.Range != v.Range || cur.Rule != v.Rule {
			return fmt.Errorf("%w: %s", ErrConflictingVariable, v.Name)
		}
		if v.Group != "" {
			r.arena[slot].Group = v.Group
		}
		return nil
	}
	r.byName[v.Name] = len(r.arena)
	r.arena = append(r.arena, v)
	return nil
}

// Variable returns a variable definition by name.
func (r *Registry) Variable(name string) (model.Variable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.byName[name]
	if !ok {
		return model.Variable{}, false
	}
	return r.arena[slot], true
}

// Variables returns every defined variable in definition order.
func (r *Registry) Variables() []model.Variable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Variable, len(r.arena))
	copy(out, r.arena)
	return out
}

// Register validates and stores the weighted variable set of a role, returning the
// frozen profile. Checks run in order: role id, per-weight sanity, duplicates, unknown
// variables, weight sum. Nothing is stored when any check fails.
func (r *Registry) Register(role RoleSpec, weights []Weight) (model.RoleProfile, error) {
	if role.ID == "" {
		return model.RoleProfile{}, fmt.Errorf("%w: empty role id", ErrInvalidRole)
	}
	if len(weights) == 0 {
		return model.RoleProfile{}, fmt.Errorf("%w: role %q has no variables", ErrInvalidRole, role.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(weights))
	refs := make([]weightRef, 0, len(weights))
	var sum float64
	for _, w := range weights {
		if math.IsNaN(w.Weight) || math.IsInf(w.Weight, 0) || w.Weight < 0 {
			return model.RoleProfile{}, fmt.Errorf("%w: role %q variable %q weight %g must be finite and non-negative", ErrInvalidRole, role.ID, w.Variable, w.Weight)
		}
		if _, dup := seen[w.Variable]; dup {
			return model.RoleProfile{}, &DuplicateVariableError{RoleID: role.ID, Variable: w.Variable}
		}
		seen[w.Variable] = struct{}{}
		slot, ok := r.byName[w.Variable]
		if !ok {
			return model.RoleProfile{}, &UnknownVariableError{RoleID: role.ID, Variable: w.Variable}
		}
		refs = append(refs, weightRef{slot: slot, weight: w.Weight})
		sum += w.Weight
	}

	if math.Abs(sum-r.weightTotal) > r.tolerance*math.Max(1, math.Abs(r.weightTotal)) {
		return model.RoleProfile{}, &WeightSumError{RoleID: role.ID, Sum: sum, Expected: r.weightTotal, Tolerance: r.tolerance}
	}
	if sum == 0 {
		return model.RoleProfile{}, fmt.Errorf("%w: role %q weights sum to zero", ErrInvalidRole, role.ID)
	}

	version := 1
	if prev, ok := r.roles[role.ID]; ok {
		version = prev.version + 1
	}
	entry := &roleEntry{spec: role, version: version, weights: refs}
	entry.profile = r.freeze(entry)
	r.roles[role.ID] = entry
	return entry.profile, nil
}

// freeze materializes a profile with copies of the current variable definitions.
// Caller holds the lock.
func (r *Registry) freeze(e *roleEntry) model.RoleProfile {
	vars := make([]model.WeightedVariable, len(e.weights))
	for i, ref := range e.weights {
		vars[i] = model.WeightedVariable{Variable: r.arena[ref.slot], Weight: ref.weight}
	}
	return model.RoleProfile{
		ID:          e.spec.ID,
		Version:     e.version,
		Name:        e.spec.Name,
		JobLevel:    e.spec.JobLevel,
		Purpose:     e.spec.Purpose,
		Variables:   vars,
		WeightTotal: r.weightTotal,
	}
}

// Resolve returns the frozen profile of a role.
func (r *Registry) Resolve(roleID string) (model.RoleProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.roles[roleID]
	if !ok {
		return model.RoleProfile{}, &UnknownRoleError{RoleID: roleID}
	}
	return copyProfile(e.profile), nil
}

// Roles lists the current profile of every role ordered by id.
func (r *Registry) Roles() []model.RoleProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.RoleProfile, 0, len(r.roles))
	for _, e := range r.roles {
		out = append(out, copyProfile(e.profile))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered roles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roles)
}

// copyProfile hands out an independent slice so callers cannot alter the stored profile.
func copyProfile(p model.RoleProfile) model.RoleProfile {
	vars := make([]model.WeightedVariable, len(p.Variables))
	copy(vars, p.Variables)
	p.Variables = vars
	return p
}
