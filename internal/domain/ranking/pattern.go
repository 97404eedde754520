package ranking

import (
	"math"
	"sort"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Pattern extraction defaults.
const (
	DefaultTopQuantile = 0.25
	DefaultMinCohort   = 5
	minCohortFloor     = 2
	degenerateSD       = 1e-12

	// quantileEpsilon absorbs float error in n·q so 100·0.07 rounds up to 7, not 8.
	quantileEpsilon = 1e-9
)

// Options tune ExtractPattern.
type Options struct {
	TopQuantile float64
	MinCohort   int
}

func (o Options) withDefaults() Options {
	if o.TopQuantile == 0 {
		o.TopQuantile = DefaultTopQuantile
	}
	if o.MinCohort == 0 {
		o.MinCohort = DefaultMinCohort
	}
	if o.MinCohort < minCohortFloor {
		o.MinCohort = minCohortFloor
	}
	return o
}

// ExtractPattern splits the ranking into the top ceil(n·q) employees and the rest,
// then measures per variable how strongly the sub-scores separate the two groups
// with a standardized mean difference (pooled SD). Variables are ordered by
// |statistic| descending, ties keeping registration order. Variables no result
// was scored on are skipped. profiles may be nil; it only feeds strengths theme
// prevalence.
func ExtractPattern(role model.RoleProfile, results []model.MatchResult, profiles map[string]model.EmployeeProfile, opts Options) (model.SuccessPattern, error) {
	opts = opts.withDefaults()
	if math.IsNaN(opts.TopQuantile) || opts.TopQuantile <= 0 || opts.TopQuantile > 1 {
		return model.SuccessPattern{}, ErrInvalidQuantile
	}

	n := len(results)
	if n < opts.MinCohort {
		return model.SuccessPattern{}, &InsufficientDataError{RoleID: role.ID, Have: n, Need: opts.MinCohort}
	}
	topSize := TopGroupSize(n, opts.TopQuantile)
	if topSize >= n {
		return model.SuccessPattern{}, &InsufficientDataError{RoleID: role.ID, Have: n, Need: opts.MinCohort, Reason: "top quantile leaves no employees in the comparison group"}
	}

	ranked := Rank(results)
	top, rest := ranked[:topSize], ranked[topSize:]

	scored := scoredVariables(ranked)
	seps := make([]model.Separation, 0, len(role.Variables))
	for _, v := range role.Variables {
		if _, ok := scored[v.Name]; !ok {
			continue
		}
		tm, tv := meanVar(top, v.Name)
		rm, rv := meanVar(rest, v.Name)
		diff := tm - rm
		nt, nr := float64(len(top)), float64(len(rest))
		pooled := math.Sqrt(((nt-1)*tv + (nr-1)*rv) / (nt + nr - 2))

		sep := model.Separation{Variable: v.Name, Group: v.Group, TopMean: tm, RestMean: rm, Difference: diff}
		if pooled < degenerateSD {
			sep.Statistic = diff
			sep.Degenerate = true
		} else {
			sep.Statistic = diff / pooled
		}
		seps = append(seps, sep)
	}
	sort.SliceStable(seps, func(i, j int) bool {
		return math.Abs(seps[i].Statistic) > math.Abs(seps[j].Statistic)
	})

	return model.SuccessPattern{
		RoleID:      role.ID,
		RoleVersion: role.Version,
		TopQuantile: opts.TopQuantile,
		TopSize:     len(top),
		RestSize:    len(rest),
		Variables:   seps,
		Themes:      themes(top, profiles),
	}, nil
}

// TopGroupSize is ceil(n·q), at least 1.
func TopGroupSize(n int, q float64) int {
	return max(int(math.Ceil(float64(n)*q-quantileEpsilon)), 1)
}

func scoredVariables(results []model.MatchResult) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range results {
		for _, c := range r.Contributions {
			out[c.Variable] = struct{}{}
		}
	}
	return out
}

// meanVar returns the mean and sample variance of a variable's sub-scores.
// A group of one has variance 0.
func meanVar(group []model.MatchResult, variable string) (float64, float64) {
	var sum float64
	for _, r := range group {
		s, _ := r.SubScore(variable)
		sum += s
	}
	mean := sum / float64(len(group))
	if len(group) < 2 {
		return mean, 0
	}
	var ss float64
	for _, r := range group {
		s, _ := r.SubScore(variable)
		ss += (s - mean) * (s - mean)
	}
	return mean, ss / float64(len(group)-1)
}

// themes counts each strengths theme once per top performer.
func themes(top []model.MatchResult, profiles map[string]model.EmployeeProfile) []model.ThemePrevalence {
	if len(profiles) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range top {
		seen := make(map[string]struct{})
		for _, th := range profiles[r.EmployeeID].Strengths {
			if _, dup := seen[th]; dup {
				continue
			}
			seen[th] = struct{}{}
			counts[th]++
		}
	}
	out := make([]model.ThemePrevalence, 0, len(counts))
	for th, c := range counts {
		out = append(out, model.ThemePrevalence{Theme: th, TopCount: c, TopPercent: float64(c) / float64(len(top)) * 100})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TopCount != out[j].TopCount {
			return out[i].TopCount > out[j].TopCount
		}
		return out[i].Theme < out[j].Theme
	})
	return out
}
