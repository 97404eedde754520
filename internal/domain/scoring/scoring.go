// Package scoring turns employee values into a Final Match Rate against a frozen
// role profile.
//
// For each variable, in registration order, the raw value is mapped to a
// sub-score in [0, 1] by the variable's rule, multiplied by its weight and
// summed. The rate is Σ(w·s)/Σw scaled to [0, scale] and clamped. The sum is
// always taken in registration order so a result is bit-reproducible.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/sourcegraph/conc/pool"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Failure is an employee that could not be scored.
type Failure struct {
	EmployeeID string
	Err        error
}

// BatchResult holds the outcome of a batch. Results keep input order.
// When Cancelled is set, Results and Failures cover only employees finished before cancellation.
type BatchResult struct {
	Results   []model.MatchResult
	Failures  []Failure
	Cancelled bool
}

// Engine scores employees. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	cfg         RunConfig
	rules       *Rules
	concurrency int
}

// NewEngine creates an engine for one run configuration.
func NewEngine(cfg RunConfig, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, rules: DefaultRules(), concurrency: 1}
	if cfg.scale == 0 {
		e.cfg = DefaultRunConfig()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the run configuration.
func (e *Engine) Config() RunConfig { return e.cfg }

// Rules returns the rule lookup used by the engine.
func (e *Engine) Rules() *Rules { return e.rules }

type compiled struct {
	profile model.RoleProfile
	rules   []Rule
}

func (e *Engine) compile(profile model.RoleProfile) (compiled, error) {
	if profile.WeightSum() <= 0 {
		return compiled{}, fmt.Errorf("%w: role %q", ErrZeroWeight, profile.ID)
	}
	rules := make([]Rule, len(profile.Variables))
	for i, v := range profile.Variables {
		r, err := e.rules.Lookup(v.Rule)
		if err != nil {
			return compiled{}, fmt.Errorf("role %q variable %q: %w", profile.ID, v.Name, err)
		}
		rules[i] = r
	}
	return compiled{profile: profile, rules: rules}, nil
}

// Score computes the match result of one employee. cohortMeans is consulted only
// under the impute-mean policy and may be nil otherwise.
func (e *Engine) Score(profile model.RoleProfile, employee model.EmployeeProfile, cohortMeans map[string]float64) (model.MatchResult, error) {
	c, err := e.compile(profile)
	if err != nil {
		return model.MatchResult{}, err
	}
	return e.score(c, employee, cohortMeans)
}

func (e *Engine) score(c compiled, employee model.EmployeeProfile, means map[string]float64) (model.MatchResult, error) {
	scale := e.cfg.scale
	contribs := make([]model.Contribution, len(c.profile.Variables))
	groupWeight := make(map[string]float64)
	groupScore := make(map[string]float64)

	var weighted, weights float64
	for i, v := range c.profile.Variables {
		ct := model.Contribution{Variable: v.Name, Group: v.Group, Weight: v.Weight}

		raw, ok := employee.Value(v.Name)
		switch {
		case ok:
			if math.IsNaN(raw) || math.IsInf(raw, 0) {
				return model.MatchResult{}, fmt.Errorf("employee %q variable %q: %w", employee.ID, v.Name, ErrNonFiniteValue)
			}
			ct.Raw = raw
			ct.SubScore = c.rules[i].SubScore(raw, v.Range)
		case e.cfg.policy == PolicyZero:
			ct.Missing = true
		case e.cfg.policy == PolicyImputeMean:
			m, has := means[v.Name]
			if !has {
				return model.MatchResult{}, &MissingVariableError{EmployeeID: employee.ID, Variable: v.Name, NoCohortValue: true}
			}
			ct.Raw = m
			ct.Imputed = true
			ct.SubScore = c.rules[i].SubScore(m, v.Range)
		default:
			return model.MatchResult{}, &MissingVariableError{EmployeeID: employee.ID, Variable: v.Name}
		}

		ct.SubScore = clamp01(ct.SubScore)
		ct.WeightedScore = v.Weight * ct.SubScore
		weighted += ct.WeightedScore
		weights += v.Weight
		if v.Group != "" {
			groupWeight[v.Group] += v.Weight
			groupScore[v.Group] += ct.WeightedScore
		}
		contribs[i] = ct
	}

	var groups map[string]float64
	if len(groupWeight) > 0 {
		groups = make(map[string]float64, len(groupWeight))
		for g, w := range groupWeight {
			if w > 0 {
				groups[g] = clampScale(groupScore[g]/w*scale, scale)
			} else {
				groups[g] = 0
			}
		}
	}

	return model.MatchResult{
		EmployeeID:     employee.ID,
		RoleID:         c.profile.ID,
		RoleVersion:    c.profile.Version,
		FinalMatchRate: clampScale(weighted/weights*scale, scale),
		Contributions:  contribs,
		GroupRates:     groups,
	}, nil
}

// CohortMeans averages each role variable over the employees that carry it,
// summing in input order. Variables nobody carries are absent from the map.
func CohortMeans(profile model.RoleProfile, employees []model.EmployeeProfile) map[string]float64 {
	means := make(map[string]float64, len(profile.Variables))
	for _, v := range profile.Variables {
		var sum float64
		var n int
		for _, emp := range employees {
			if raw, ok := emp.Value(v.Name); ok && !math.IsNaN(raw) && !math.IsInf(raw, 0) {
				sum += raw
				n++
			}
		}
		if n > 0 {
			means[v.Name] = sum / float64(n)
		}
	}
	return means
}

type slot struct {
	done   bool
	result model.MatchResult
	err    error
}

// ScoreBatch scores every employee against the profile. Per-employee errors are
// collected in Failures; the returned error is reserved for problems with the
// profile itself, which abort before any employee is scored. Cancellation is
// checked before each employee.
func (e *Engine) ScoreBatch(ctx context.Context, profile model.RoleProfile, employees []model.EmployeeProfile) (BatchResult, error) {
	c, err := e.compile(profile)
	if err != nil {
		return BatchResult{}, err
	}

	var means map[string]float64
	if e.cfg.policy == PolicyImputeMean {
		means = CohortMeans(profile, employees)
	}

	slots := make([]slot, len(employees))
	run := func(i int) {
		if ctx.Err() != nil {
			return
		}
		res, err := e.score(c, employees[i], means)
		slots[i] = slot{done: true, result: res, err: err}
	}

	if e.concurrency > 1 && len(employees) > 1 {
		p := pool.New().WithMaxGoroutines(e.concurrency)
		for i := range employees {
			p.Go(func() { run(i) })
		}
		p.Wait()
	} else {
		for i := range employees {
			if ctx.Err() != nil {
				break
			}
			run(i)
		}
	}

	out := BatchResult{Results: make([]model.MatchResult, 0, len(employees))}
	for i, s := range slots {
		if !s.done {
			out.Cancelled = true
			continue
		}
		if s.err != nil {
			out.Failures = append(out.Failures, Failure{EmployeeID: employees[i].ID, Err: s.err})
			continue
		}
		out.Results = append(out.Results, s.result)
	}
	return out, nil
}

func clampScale(v, scale float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > scale:
		return scale
	}
	return v
}
