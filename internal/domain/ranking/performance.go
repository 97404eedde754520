package ranking

import (
	"fmt"
	"sort"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// Rating bounds for PerformanceGap.
const (
	DefaultHighRating = 5
	minRating         = 1
	maxRating         = 5
)

// PerformanceGap contrasts employees rated highRating with every other rated
// employee: the mean raw value of each role variable, in registration order,
// and how many in each group hold every strengths theme. Employees without a
// rating are counted as unrated and left out. A variable that either group
// never carries is skipped. highRating 0 means DefaultHighRating.
func PerformanceGap(role model.RoleProfile, profiles map[string]model.EmployeeProfile, highRating int) (model.PerformanceGap, error) {
	if highRating == 0 {
		highRating = DefaultHighRating
	}
	if highRating < minRating || highRating > maxRating {
		return model.PerformanceGap{}, ErrInvalidRating
	}

	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var high, other []model.EmployeeProfile
	unrated := 0
	for _, id := range ids {
		p := profiles[id]
		switch {
		case p.Rating == 0:
			unrated++
		case p.Rating == highRating:
			high = append(high, p)
		default:
			other = append(other, p)
		}
	}
	if len(high) == 0 || len(other) == 0 {
		return model.PerformanceGap{}, &InsufficientDataError{
			RoleID: role.ID,
			Have:   len(high) + len(other),
			Reason: fmt.Sprintf("%d employees rated %d and %d rated otherwise, need both groups", len(high), highRating, len(other)),
		}
	}

	gaps := make([]model.VariableGap, 0, len(role.Variables))
	for _, v := range role.Variables {
		hm, hn := rawMean(high, v.Name)
		om, on := rawMean(other, v.Name)
		if hn == 0 || on == 0 {
			continue
		}
		gaps = append(gaps, model.VariableGap{
			Variable:   v.Name,
			Group:      v.Group,
			HighMean:   hm,
			OtherMean:  om,
			Gap:        hm - om,
			HighCount:  hn,
			OtherCount: on,
		})
	}

	return model.PerformanceGap{
		RoleID:      role.ID,
		RoleVersion: role.Version,
		HighRating:  highRating,
		HighSize:    len(high),
		OtherSize:   len(other),
		Unrated:     unrated,
		Variables:   gaps,
		Themes:      themeGaps(high, other),
	}, nil
}

func rawMean(group []model.EmployeeProfile, variable string) (float64, int) {
	var sum float64
	n := 0
	for _, p := range group {
		if v, ok := p.Value(variable); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// themeGaps orders themes by high performer share, then by theme.
func themeGaps(high, other []model.EmployeeProfile) []model.ThemeGap {
	hc, oc := themeCounts(high), themeCounts(other)
	if len(hc) == 0 && len(oc) == 0 {
		return nil
	}
	out := make([]model.ThemeGap, 0, len(hc)+len(oc))
	for th, c := range hc {
		out = append(out, model.ThemeGap{Theme: th, HighCount: c, OtherCount: oc[th]})
	}
	for th, c := range oc {
		if _, ok := hc[th]; !ok {
			out = append(out, model.ThemeGap{Theme: th, OtherCount: c})
		}
	}
	for i := range out {
		out[i].HighPercent = float64(out[i].HighCount) / float64(len(high)) * 100
		out[i].OtherPercent = float64(out[i].OtherCount) / float64(len(other)) * 100
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HighCount != out[j].HighCount {
			return out[i].HighCount > out[j].HighCount
		}
		return out[i].Theme < out[j].Theme
	})
	return out
}

// themeCounts counts each theme once per employee.
func themeCounts(group []model.EmployeeProfile) map[string]int {
	counts := make(map[string]int)
	for _, p := range group {
		seen := make(map[string]struct{}, len(p.Strengths))
		for _, th := range p.Strengths {
			if _, dup := seen[th]; dup {
				continue
			}
			seen[th] = struct{}{}
			counts[th]++
		}
	}
	return counts
}
