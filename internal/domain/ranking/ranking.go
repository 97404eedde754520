// Package ranking orders match results and derives the success pattern of a role.
package ranking

import (
	"sort"
	"strings"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 10

// Less reports whether a ranks before b: higher rate first, then employee id ascending.
func Less(a, b model.MatchResult) bool {
	if a.FinalMatchRate != b.FinalMatchRate {
		return a.FinalMatchRate > b.FinalMatchRate
	}
	return a.EmployeeID < b.EmployeeID
}

// Rank returns a sorted copy of results with rank numbers assigned.
// Equal rates share a rank; the next distinct rate takes the next number.
func Rank(results []model.MatchResult) []model.MatchResult {
	out := make([]model.MatchResult, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	AssignRanks(out)
	return out
}

// AssignRanks numbers an already sorted slice in place.
func AssignRanks(sorted []model.MatchResult) {
	rank := 0
	for i := range sorted {
		if i == 0 || sorted[i].FinalMatchRate != sorted[i-1].FinalMatchRate {
			rank++
		}
		sorted[i].Rank = rank
	}
}

// IndexProfiles maps employee id to profile.
func IndexProfiles(profiles []model.EmployeeProfile) map[string]model.EmployeeProfile {
	out := make(map[string]model.EmployeeProfile, len(profiles))
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out
}

// Search keeps ranked results whose employee id, name or position contains query,
// case-insensitively. An empty query keeps everything. Order is preserved.
func Search(ranked []model.MatchResult, profiles map[string]model.EmployeeProfile, query string) []model.MatchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ranked
	}
	out := make([]model.MatchResult, 0)
	for _, r := range ranked {
		if strings.Contains(strings.ToLower(r.EmployeeID), q) {
			out = append(out, r)
			continue
		}
		p, ok := profiles[r.EmployeeID]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(p.FullName), q) || strings.Contains(strings.ToLower(p.Org.Position), q) {
			out = append(out, r)
		}
	}
	return out
}

// Page describes one page of a list.
type Page struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Paginate returns the 1-based page of list. Pages past the end are empty.
func Paginate[T any](list []T, page, size int) ([]T, Page) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	meta := Page{Page: page, Size: size, Total: len(list), Pages: (len(list) + size - 1) / size}
	start := (page - 1) * size
	if start >= len(list) {
		return []T{}, meta
	}
	end := min(start+size, len(list))
	return list[start:end], meta
}
