package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Rule names understood by DefaultRules.
const (
	RuleLinear  = "linear"
	RuleInverse = "inverse"
	bandsPrefix = "bands:"
)

// Rule maps a raw value to a sub-score in [0, 1] against the variable's range.
type Rule interface {
	SubScore(raw float64, r model.Range) float64
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(raw float64, r model.Range) float64

// SubScore calls f.
func (f RuleFunc) SubScore(raw float64, r model.Range) float64 { return f(raw, r) }

// Linear is min-max scaling, clamped at the range boundaries.
var Linear Rule = RuleFunc(func(raw float64, r model.Range) float64 { //nolint:gochecknoglobals // stateless strategy
	return clamp01((raw - r.Min) / (r.Max - r.Min))
})

// Inverse scores lower values higher, clamped at the range boundaries.
var Inverse Rule = RuleFunc(func(raw float64, r model.Range) float64 { //nolint:gochecknoglobals // stateless strategy
	return 1 - Linear.SubScore(raw, r)
})

type band struct {
	threshold float64
	score     float64
}

// bandsRule gives the score of the highest threshold reached, 0 below the first.
type bandsRule []band

func (b bandsRule) SubScore(raw float64, r model.Range) float64 {
	raw = math.Min(math.Max(raw, r.Min), r.Max)
	s := 0.0
	for _, bd := range b {
		if raw < bd.threshold {
			break
		}
		s = bd.score
	}
	return s
}

// parseBands reads "bands:50=0.5,80=1".
func parseBands(spec string) (Rule, error) {
	body := strings.TrimPrefix(spec, bandsPrefix)
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: %q has no bands", ErrUnknownRule, spec)
	}
	var out bandsRule
	for _, part := range strings.Split(body, ",") {
		th, sc, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q: band %q must be threshold=score", ErrUnknownRule, spec, part)
		}
		t, err1 := strconv.ParseFloat(strings.TrimSpace(th), 64)
		s, err2 := strconv.ParseFloat(strings.TrimSpace(sc), 64)
		if err1 != nil || err2 != nil || math.IsNaN(t) || math.IsInf(t, 0) || s < 0 || s > 1 || math.IsNaN(s) {
			return nil, fmt.Errorf("%w: %q: band %q needs a finite threshold and a score in [0,1]", ErrUnknownRule, spec, part)
		}
		out = append(out, band{threshold: t, score: s})
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].threshold < out[j].threshold }) {
		return nil, fmt.Errorf("%w: %q: thresholds must ascend", ErrUnknownRule, spec)
	}
	for i := 1; i < len(out); i++ {
		if out[i].threshold == out[i-1].threshold {
			return nil, fmt.Errorf("%w: %q: repeated threshold %g", ErrUnknownRule, spec, out[i].threshold)
		}
	}
	return out, nil
}

// Rules resolves rule names to strategies. Custom rules may be registered by name;
// "bands:" specs are parsed on demand and cached.
type Rules struct {
	mu    sync.RWMutex
	named map[string]Rule
}

// DefaultRules returns a lookup with linear and inverse registered.
func DefaultRules() *Rules {
	return &Rules{named: map[string]Rule{
		RuleLinear:  Linear,
		RuleInverse: Inverse,
	}}
}

// Register adds or replaces a named rule.
func (r *Rules) Register(name string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = rule
}

// Lookup returns the rule for a name or bands spec. An empty name means linear.
func (r *Rules) Lookup(name string) (Rule, error) {
	if name == "" {
		name = RuleLinear
	}
	r.mu.RLock()
	rule, ok := r.named[name]
	r.mu.RUnlock()
	if ok {
		return rule, nil
	}
	if !strings.HasPrefix(name, bandsPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	rule, err := parseBands(name)
	if err != nil {
		return nil, err
	}
	r.Register(name, rule)
	return rule, nil
}

// Validate reports whether name resolves to a rule.
func (r *Rules) Validate(name string) error {
	_, err := r.Lookup(name)
	return err
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
