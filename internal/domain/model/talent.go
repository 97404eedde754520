// Package model contains domain models passed between layers.
package model

import "math"

// Range is the declared valid interval of a variable's raw values.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Valid reports whether the range is finite and non-empty.
func (r Range) Valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) &&
		!math.IsInf(r.Min, 0) && !math.IsInf(r.Max, 0) && r.Max > r.Min
}

// Contains reports whether v lies inside the closed range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Variable is a talent group variable (TGV) definition shared by roles.
type Variable struct {
	Name  string `json:"name"`
	Range Range  `json:"range"`
	Rule  string `json:"rule"`            // aggregation rule, e.g. "linear", "inverse", "bands:50=0.5,80=1"
	Group string `json:"group,omitempty"` // talent group, e.g. "Competency", "Cognitive"
}

// WeightedVariable is a variable with its role-scoped weight.
type WeightedVariable struct {
	Variable
	Weight float64 `json:"weight"`
}

// RoleProfile is the frozen, ordered variable set of a role.
// A resolved profile is never mutated; re-registration produces a new Version.
type RoleProfile struct {
	ID          string             `json:"id"`
	Version     int                `json:"version"`
	Name        string             `json:"name,omitempty"`
	JobLevel    string             `json:"job_level,omitempty"`
	Purpose     string             `json:"purpose,omitempty"`
	Variables   []WeightedVariable `json:"variables"`
	WeightTotal float64            `json:"weight_total"`
}

// WeightSum returns Σ weight in registration order.
func (p RoleProfile) WeightSum() float64 {
	var sum float64
	for _, v := range p.Variables {
		sum += v.Weight
	}
	return sum
}

// Org holds optional organisational metadata of an employee.
type Org struct {
	Department  string `json:"department,omitempty" yaml:"department"`
	Division    string `json:"division,omitempty" yaml:"division"`
	Directorate string `json:"directorate,omitempty" yaml:"directorate"`
	JobLevel    string `json:"job_level,omitempty" yaml:"job_level"`
	Position    string `json:"position,omitempty" yaml:"position"`
}

// EmployeeProfile is a normalized employee record, immutable for a scoring run.
type EmployeeProfile struct {
	ID        string             `json:"id"`
	FullName  string             `json:"full_name,omitempty"`
	Values    map[string]float64 `json:"values"`
	Strengths []string           `json:"strengths,omitempty"` // rank 1 first
	Org       Org                `json:"org"`
	Rating    int                `json:"rating,omitempty"` // latest performance rating, 0 when unknown
}

// Value returns the raw value of a variable and whether it is present.
func (e EmployeeProfile) Value(name string) (float64, bool) {
	v, ok := e.Values[name]
	return v, ok
}

// Contribution explains one variable's share of a final match rate.
type Contribution struct {
	Variable      string  `json:"variable" yaml:"variable"`
	Group         string  `json:"group,omitempty" yaml:"group,omitempty"`
	Raw           float64 `json:"raw" yaml:"raw"`
	Imputed       bool    `json:"imputed,omitempty" yaml:"imputed,omitempty"`
	Missing       bool    `json:"missing,omitempty" yaml:"missing,omitempty"`
	SubScore      float64 `json:"sub_score" yaml:"sub_score"`
	Weight        float64 `json:"weight" yaml:"weight"`
	WeightedScore float64 `json:"weighted_score" yaml:"weighted_score"`
}

// MatchResult is the score of one employee against one role version.
type MatchResult struct {
	EmployeeID     string             `json:"employee_id" yaml:"employee_id"`
	RoleID         string             `json:"role_id" yaml:"role_id"`
	RoleVersion    int                `json:"role_version" yaml:"role_version"`
	FinalMatchRate float64            `json:"final_match_rate" yaml:"final_match_rate"`
	Contributions  []Contribution     `json:"contributions" yaml:"contributions"`
	GroupRates     map[string]float64 `json:"group_rates,omitempty" yaml:"group_rates,omitempty"`
	Rank           int                `json:"rank,omitempty" yaml:"rank,omitempty"`
}

// SubScore returns the sub-score recorded for a variable.
func (r MatchResult) SubScore(variable string) (float64, bool) {
	for _, c := range r.Contributions {
		if c.Variable == variable {
			return c.SubScore, true
		}
	}
	return 0, false
}

// Separation is the separating statistic of one variable between top and rest.
type Separation struct {
	Variable   string  `json:"variable" yaml:"variable"`
	Group      string  `json:"group,omitempty" yaml:"group,omitempty"`
	TopMean    float64 `json:"top_mean" yaml:"top_mean"`
	RestMean   float64 `json:"rest_mean" yaml:"rest_mean"`
	Difference float64 `json:"difference" yaml:"difference"` // competency gap, TopMean - RestMean
	Statistic  float64 `json:"statistic" yaml:"statistic"`
	Degenerate bool    `json:"degenerate,omitempty" yaml:"degenerate,omitempty"` // pooled SD was zero
}

// ThemePrevalence is the share of top performers holding a strengths theme.
type ThemePrevalence struct {
	Theme      string  `json:"theme" yaml:"theme"`
	TopCount   int     `json:"top_count" yaml:"top_count"`
	TopPercent float64 `json:"top_percent" yaml:"top_percent"`
}

// SuccessPattern summarizes what separates a role's top performers.
type SuccessPattern struct {
	RoleID      string            `json:"role_id" yaml:"role_id"`
	RoleVersion int               `json:"role_version" yaml:"role_version"`
	TopQuantile float64           `json:"top_quantile" yaml:"top_quantile"`
	TopSize     int               `json:"top_size" yaml:"top_size"`
	RestSize    int               `json:"rest_size" yaml:"rest_size"`
	Variables   []Separation      `json:"variables" yaml:"variables"`
	Themes      []ThemePrevalence `json:"themes,omitempty" yaml:"themes,omitempty"`
}

// VariableGap compares a variable's raw values between high performers and the
// other rated employees. Counts are the employees carrying the value.
type VariableGap struct {
	Variable   string  `json:"variable" yaml:"variable"`
	Group      string  `json:"group,omitempty" yaml:"group,omitempty"`
	HighMean   float64 `json:"high_mean" yaml:"high_mean"`
	OtherMean  float64 `json:"other_mean" yaml:"other_mean"`
	Gap        float64 `json:"gap" yaml:"gap"`
	HighCount  int     `json:"high_count" yaml:"high_count"`
	OtherCount int     `json:"other_count" yaml:"other_count"`
}

// ThemeGap counts a strengths theme among high performers and the others.
type ThemeGap struct {
	Theme        string  `json:"theme" yaml:"theme"`
	HighCount    int     `json:"high_count" yaml:"high_count"`
	OtherCount   int     `json:"other_count" yaml:"other_count"`
	HighPercent  float64 `json:"high_percent" yaml:"high_percent"`
	OtherPercent float64 `json:"other_percent" yaml:"other_percent"`
}

// PerformanceGap contrasts employees holding the high rating with the rest of
// the rated cohort.
type PerformanceGap struct {
	RoleID      string        `json:"role_id" yaml:"role_id"`
	RoleVersion int           `json:"role_version" yaml:"role_version"`
	HighRating  int           `json:"high_rating" yaml:"high_rating"`
	HighSize    int           `json:"high_size" yaml:"high_size"`
	OtherSize   int           `json:"other_size" yaml:"other_size"`
	Unrated     int           `json:"unrated" yaml:"unrated"`
	Variables   []VariableGap `json:"variables" yaml:"variables"`
	Themes      []ThemeGap    `json:"themes,omitempty" yaml:"themes,omitempty"`
}
