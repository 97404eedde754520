// Package loader normalizes raw employee and role records into domain entities.
// It performs no I/O besides decoding readers handed to it.
package loader

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/registry"
)

// Limits of the loader.
const (
	MaxStrengths = 5
	MaxRating    = 5
)

// EmployeeRecord is a raw employee row as fetched from storage or decoded from a file.
type EmployeeRecord struct {
	ID        string         `json:"id" yaml:"id"`
	FullName  string         `json:"full_name" yaml:"full_name"`
	Values    map[string]any `json:"values" yaml:"values"`
	Strengths []string       `json:"strengths,omitempty" yaml:"strengths"`
	Org       model.Org      `json:"org" yaml:"org"`
	Rating    int            `json:"rating,omitempty" yaml:"rating"`
}

// Batch is the outcome of loading employee records.
type Batch struct {
	Profiles []model.EmployeeProfile
	Rejected []*ValidationError
}

// Err combines every rejection into one error, nil when all records loaded.
func (b Batch) Err() error {
	var err error
	for _, r := range b.Rejected {
		err = multierr.Append(err, r)
	}
	return err
}

// LoadEmployees validates records and converts the valid ones. Input order is preserved.
// A record id seen more than once rejects every occurrence.
func LoadEmployees(records []EmployeeRecord) Batch {
	counts := make(map[string]int, len(records))
	for _, rec := range records {
		counts[strings.TrimSpace(rec.ID)]++
	}

	var out Batch
	for _, rec := range records {
		p, verr := loadEmployee(rec)
		if id := strings.TrimSpace(rec.ID); id != "" && counts[id] > 1 {
			verr.add("id", "duplicate employee id in batch (%d occurrences)", counts[id])
		}
		if err := verr.orNil(); err != nil {
			out.Rejected = append(out.Rejected, verr)
			continue
		}
		out.Profiles = append(out.Profiles, p)
	}
	return out
}

func loadEmployee(rec EmployeeRecord) (model.EmployeeProfile, *ValidationError) {
	id := strings.TrimSpace(rec.ID)
	verr := &ValidationError{RecordID: id}
	if id == "" {
		verr.add("id", "must not be empty")
	}

	values := make(map[string]float64, len(rec.Values))
	for _, name := range sortedKeys(rec.Values) {
		raw := rec.Values[name]
		if raw == nil {
			continue // a null column is a missing value, handled by the scoring policy
		}
		if strings.TrimSpace(name) == "" {
			verr.add("values", "empty variable name")
			continue
		}
		v, err := toFloat(raw)
		if err != nil {
			verr.add("values."+name, "%v", err)
			continue
		}
		values[name] = v
	}

	var strengths []string
	for i, s := range rec.Strengths {
		s = strings.TrimSpace(s)
		if s == "" {
			verr.add(fmt.Sprintf("strengths[%d]", i), "empty theme")
			continue
		}
		if len(strengths) < MaxStrengths {
			strengths = append(strengths, s)
		}
	}

	if rec.Rating < 0 || rec.Rating > MaxRating {
		verr.add("rating", "must be between 0 and %d, got %d", MaxRating, rec.Rating)
	}

	return model.EmployeeProfile{
		ID:        id,
		FullName:  strings.TrimSpace(rec.FullName),
		Values:    values,
		Strengths: strengths,
		Org:       rec.Org,
		Rating:    rec.Rating,
	}, verr
}

// toFloat accepts the numeric shapes produced by database/sql, encoding/json and yaml.v3.
func toFloat(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", x.String())
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", x)
		}
		v = f
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric: %q", x)
		}
		v = f
	default:
		return 0, fmt.Errorf("not numeric: %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %v", v)
	}
	return v, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RoleVariableRecord is a raw variable row of a role definition.
type RoleVariableRecord struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Rule   string  `json:"rule,omitempty" yaml:"rule"`
	Group  string  `json:"group,omitempty" yaml:"group"`
}

// RoleRecord is a raw role definition.
type RoleRecord struct {
	ID        string               `json:"id" yaml:"id"`
	Name      string               `json:"name" yaml:"name"`
	JobLevel  string               `json:"job_level,omitempty" yaml:"job_level"`
	Purpose   string               `json:"purpose,omitempty" yaml:"purpose"`
	Variables []RoleVariableRecord `json:"variables" yaml:"variables"`
}

// RoleDefinition is a validated role record ready for the registry.
type RoleDefinition struct {
	Spec      registry.RoleSpec
	Variables []model.Variable
	Weights   []registry.Weight
}

// LoadRole validates a role record and splits it into variable definitions and weights.
// Duplicate variable names are left for the registry to reject.
func LoadRole(rec RoleRecord) (RoleDefinition, error) {
	id := strings.TrimSpace(rec.ID)
	verr := &ValidationError{RecordID: id}
	if id == "" {
		verr.add("id", "must not be empty")
	}
	if len(rec.Variables) == 0 {
		verr.add("variables", "must list at least one variable")
	}

	def := RoleDefinition{
		Spec: registry.RoleSpec{
			ID:       id,
			Name:     strings.TrimSpace(rec.Name),
			JobLevel: strings.TrimSpace(rec.JobLevel),
			Purpose:  strings.TrimSpace(rec.Purpose),
		},
	}
	for i, v := range rec.Variables {
		field := fmt.Sprintf("variables[%d]", i)
		name := strings.TrimSpace(v.Name)
		if name == "" {
			verr.add(field+".name", "must not be empty")
		}
		if math.IsNaN(v.Weight) || math.IsInf(v.Weight, 0) || v.Weight < 0 {
			verr.add(field+".weight", "must be finite and non-negative, got %v", v.Weight)
		}
		rng := model.Range{Min: v.Min, Max: v.Max}
		if !rng.Valid() {
			verr.add(field+".range", "must be finite with max > min, got [%v, %v]", v.Min, v.Max)
		}
		def.Variables = append(def.Variables, model.Variable{
			Name:  name,
			Range: rng,
			Rule:  strings.TrimSpace(v.Rule),
			Group: strings.TrimSpace(v.Group),
		})
		def.Weights = append(def.Weights, registry.Weight{Variable: name, Weight: v.Weight})
	}

	if err := verr.orNil(); err != nil {
		return RoleDefinition{}, err
	}
	return def, nil
}
