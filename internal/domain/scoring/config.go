package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Policy is the missing-data policy of a scoring run.
type Policy string

// Supported policies.
const (
	PolicyFail       Policy = "fail"
	PolicyZero       Policy = "zero"
	PolicyImputeMean Policy = "impute-mean"
)

// ParsePolicy accepts fail, zero and impute-mean (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFail, PolicyZero, PolicyImputeMean:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// DefaultScale is the upper bound of a final match rate.
const DefaultScale = 100.0

// RunConfig is the immutable configuration of one scoring run.
type RunConfig struct {
	policy Policy
	scale  float64
}

// NewRunConfig validates a policy and output scale.
func NewRunConfig(policy Policy, scale float64) (RunConfig, error) {
	if _, err := ParsePolicy(string(policy)); err != nil {
		return RunConfig{}, err
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return RunConfig{}, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	return RunConfig{policy: policy, scale: scale}, nil
}

// DefaultRunConfig is the fail policy on a 0-100 scale.
func DefaultRunConfig() RunConfig {
	return RunConfig{policy: PolicyFail, scale: DefaultScale}
}

// Policy returns the missing-data policy.
func (c RunConfig) Policy() Policy { return c.policy }

// Scale returns the output scale.
func (c RunConfig) Scale() float64 { return c.scale }

// WithPolicy returns a copy using another policy.
func (c RunConfig) WithPolicy(p Policy) (RunConfig, error) {
	return NewRunConfig(p, c.scale)
}
