package ranking_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func result(id string, rate float64) model.MatchResult {
	return model.MatchResult{EmployeeID: id, RoleID: "analyst", FinalMatchRate: rate}
}

func ids(rs []model.MatchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.EmployeeID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given the Analyst results", t, func() {
		ranked := ranking.Rank([]model.MatchResult{result("A", 68), result("B", 100)})

		Convey("Then B ranks before A", func() {
			So(ids(ranked), ShouldResemble, []string{"B", "A"})
			So(ranked[0].Rank, ShouldEqual, 1)
			So(ranked[1].Rank, ShouldEqual, 2)
		})
	})

	Convey("Given tied rates in any input order", t, func() {
		inputs := [][]model.MatchResult{
			{result("c", 68), result("a", 68), result("d", 50), result("b", 100)},
			{result("d", 50), result("b", 100), result("a", 68), result("c", 68)},
		}
		for _, in := range inputs {
			ranked := ranking.Rank(in)
			So(ids(ranked), ShouldResemble, []string{"b", "a", "c", "d"})
			So([]int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank, ranked[3].Rank}, ShouldResemble, []int{1, 2, 2, 3})
		}
	})

	Convey("Rank does not reorder its input", t, func() {
		in := []model.MatchResult{result("x", 1), result("y", 2)}
		_ = ranking.Rank(in)
		So(in[0].EmployeeID, ShouldEqual, "x")
		So(in[0].Rank, ShouldEqual, 0)
	})
}

func TestSearchAndPaginate(t *testing.T) {
	Convey("Given a ranked list with profiles", t, func() {
		ranked := ranking.Rank([]model.MatchResult{result("EMP-1", 90), result("EMP-2", 80), result("EMP-3", 70)})
		profiles := ranking.IndexProfiles([]model.EmployeeProfile{
			{ID: "EMP-1", FullName: "Ana Putri", Org: model.Org{Position: "Data Analyst"}},
			{ID: "EMP-2", FullName: "Budi", Org: model.Org{Position: "Engineer"}},
		})

		So(ids(ranking.Search(ranked, profiles, "analyst")), ShouldResemble, []string{"EMP-1"})
		So(ids(ranking.Search(ranked, profiles, "BUDI")), ShouldResemble, []string{"EMP-2"})
		So(ids(ranking.Search(ranked, profiles, "emp-3")), ShouldResemble, []string{"EMP-3"})
		So(ranking.Search(ranked, profiles, "  "), ShouldHaveLength, 3)
		So(ranking.Search(ranked, profiles, "nobody"), ShouldBeEmpty)
	})

	Convey("Given 23 items", t, func() {
		list := make([]int, 23)
		for i := range list {
			list[i] = i
		}

		page, meta := ranking.Paginate(list, 3, 0)
		So(page, ShouldResemble, []int{20, 21, 22})
		So(meta, ShouldResemble, ranking.Page{Page: 3, Size: ranking.DefaultPageSize, Total: 23, Pages: 3})

		page, meta = ranking.Paginate(list, 0, 5)
		So(page, ShouldResemble, []int{0, 1, 2, 3, 4})
		So(meta.Page, ShouldEqual, 1)

		page, _ = ranking.Paginate(list, 9, 10)
		So(page, ShouldBeEmpty)
	})
}

func patternRole() model.RoleProfile {
	return model.RoleProfile{ID: "analyst", Version: 2, Variables: []model.WeightedVariable{
		{Variable: model.Variable{Name: "flat", Group: "Cognitive"}, Weight: 0.2},
		{Variable: model.Variable{Name: "twin"}, Weight: 0.4},
		{Variable: model.Variable{Name: "accuracy", Group: "Competency"}, Weight: 0.4},
	}}
}

func patternResults() []model.MatchResult {
	subs := []float64{1.0, 0.9, 0.3, 0.3, 0.2, 0.2, 0.1, 0.1}
	out := make([]model.MatchResult, len(subs))
	for i, s := range subs {
		out[i] = model.MatchResult{
			EmployeeID:     fmt.Sprintf("e%d", i+1),
			FinalMatchRate: s * 100,
			Contributions: []model.Contribution{
				{Variable: "flat", SubScore: 0.5},
				{Variable: "twin", SubScore: s},
				{Variable: "accuracy", SubScore: s},
			},
		}
	}
	return out
}

func TestExtractPattern(t *testing.T) {
	Convey("Given eight scored employees", t, func() {
		role := patternRole()
		results := patternResults()
		profiles := ranking.IndexProfiles([]model.EmployeeProfile{
			{ID: "e1", Strengths: []string{"Achiever", "Learner"}},
			{ID: "e2", Strengths: []string{"Focus", "Achiever"}},
			{ID: "e3", Strengths: []string{"Harmony"}},
		})

		p, err := ranking.ExtractPattern(role, results, profiles, ranking.Options{TopQuantile: 0.25, MinCohort: 5})

		Convey("Then the top group is the rounded-up quartile", func() {
			So(err, ShouldBeNil)
			So(p.TopSize, ShouldEqual, 2)
			So(p.RestSize, ShouldEqual, 6)
			So(p.RoleVersion, ShouldEqual, 2)
		})

		Convey("Then variables are ordered by |statistic| with registration order on ties", func() {
			So(p.Variables[0].Variable, ShouldEqual, "twin")
			So(p.Variables[1].Variable, ShouldEqual, "accuracy")
			So(p.Variables[2].Variable, ShouldEqual, "flat")
			So(p.Variables[0].Statistic, ShouldEqual, p.Variables[1].Statistic)
			So(p.Variables[1].TopMean, ShouldAlmostEqual, 0.95, 1e-12)
			So(p.Variables[1].RestMean, ShouldAlmostEqual, 0.2, 1e-12)
			So(p.Variables[1].Difference, ShouldAlmostEqual, 0.75, 1e-12)
			So(p.Variables[1].Statistic, ShouldBeGreaterThan, 0.75)
		})

		Convey("Then a constant variable is flagged degenerate", func() {
			flat := p.Variables[2]
			So(flat.Degenerate, ShouldBeTrue)
			So(flat.Statistic, ShouldEqual, 0.0)
			So(flat.Group, ShouldEqual, "Cognitive")
		})

		Convey("Then strengths themes of the top group are counted", func() {
			So(p.Themes, ShouldResemble, []model.ThemePrevalence{
				{Theme: "Achiever", TopCount: 2, TopPercent: 100},
				{Theme: "Focus", TopCount: 1, TopPercent: 50},
				{Theme: "Learner", TopCount: 1, TopPercent: 50},
			})
		})

		Convey("Then input order does not matter", func() {
			reversed := make([]model.MatchResult, len(results))
			for i, r := range results {
				reversed[len(results)-1-i] = r
			}
			again, err := ranking.ExtractPattern(role, reversed, profiles, ranking.Options{TopQuantile: 0.25, MinCohort: 5})
			So(err, ShouldBeNil)
			So(again, ShouldResemble, p)
		})
	})

	Convey("Given too few employees", t, func() {
		_, err := ranking.ExtractPattern(patternRole(), patternResults()[:4], nil, ranking.Options{})

		Convey("Then InsufficientDataError is returned", func() {
			var ide *ranking.InsufficientDataError
			So(errors.As(err, &ide), ShouldBeTrue)
			So(ide.Have, ShouldEqual, 4)
			So(ide.Need, ShouldEqual, ranking.DefaultMinCohort)
			So(errors.Is(err, ranking.ErrInsufficientData), ShouldBeTrue)
		})
	})

	Convey("Given a quantile that leaves no rest group", t, func() {
		_, err := ranking.ExtractPattern(patternRole(), patternResults(), nil, ranking.Options{TopQuantile: 1})
		So(errors.Is(err, ranking.ErrInsufficientData), ShouldBeTrue)
	})

	Convey("Given an invalid quantile", t, func() {
		_, err := ranking.ExtractPattern(patternRole(), patternResults(), nil, ranking.Options{TopQuantile: 1.5})
		So(errors.Is(err, ranking.ErrInvalidQuantile), ShouldBeTrue)
	})

	Convey("Given quantiles whose product with n is a whole number", t, func() {
		So(ranking.TopGroupSize(100, 0.07), ShouldEqual, 7)
		So(ranking.TopGroupSize(30, 0.1), ShouldEqual, 3)
		So(ranking.TopGroupSize(10, 0.7), ShouldEqual, 7)
		So(ranking.TopGroupSize(10, 0.25), ShouldEqual, 3)
		So(ranking.TopGroupSize(3, 0.01), ShouldEqual, 1)

		results := make([]model.MatchResult, 100)
		for i := range results {
			results[i] = model.MatchResult{
				EmployeeID:     fmt.Sprintf("e%03d", i),
				FinalMatchRate: float64(100 - i),
				Contributions:  []model.Contribution{{Variable: "accuracy", SubScore: float64(100-i) / 100}},
			}
		}
		p, err := ranking.ExtractPattern(patternRole(), results, nil, ranking.Options{TopQuantile: 0.07})
		So(err, ShouldBeNil)
		So(p.TopSize, ShouldEqual, 7)
		So(p.RestSize, ShouldEqual, 93)

		Convey("Then only the variables the results were scored on are compared", func() {
			So(p.Variables, ShouldHaveLength, 1)
			So(p.Variables[0].Variable, ShouldEqual, "accuracy")
		})
	})

	Convey("Given no profiles", t, func() {
		p, err := ranking.ExtractPattern(patternRole(), patternResults(), nil, ranking.Options{})
		So(err, ShouldBeNil)
		So(p.Themes, ShouldBeNil)
	})
}

func TestPerformanceGap(t *testing.T) {
	role := model.RoleProfile{ID: "analyst", Version: 3, Variables: []model.WeightedVariable{
		{Variable: model.Variable{Name: "accuracy", Group: "Competency"}, Weight: 0.5},
		{Variable: model.Variable{Name: "speed", Group: "Cognitive"}, Weight: 0.3},
		{Variable: model.Variable{Name: "flat"}, Weight: 0.2},
	}}
	profiles := ranking.IndexProfiles([]model.EmployeeProfile{
		{ID: "h1", Rating: 5, Values: map[string]float64{"accuracy": 90, "speed": 80}, Strengths: []string{"Achiever", "Focus"}},
		{ID: "h2", Rating: 5, Values: map[string]float64{"accuracy": 70}, Strengths: []string{"Achiever", "Achiever"}},
		{ID: "o1", Rating: 3, Values: map[string]float64{"accuracy": 50, "speed": 40}, Strengths: []string{"Harmony", "Achiever"}},
		{ID: "o2", Rating: 2, Values: map[string]float64{"accuracy": 30}, Strengths: []string{"Harmony"}},
		{ID: "u1", Values: map[string]float64{"accuracy": 100, "flat": 1}, Strengths: []string{"Focus"}},
	})

	Convey("Given a cohort with high performers, others and an unrated employee", t, func() {
		g, err := ranking.PerformanceGap(role, profiles, 0)
		So(err, ShouldBeNil)

		Convey("Then groups are split by rating and unrated employees are left out", func() {
			So(g.HighRating, ShouldEqual, ranking.DefaultHighRating)
			So(g.HighSize, ShouldEqual, 2)
			So(g.OtherSize, ShouldEqual, 2)
			So(g.Unrated, ShouldEqual, 1)
			So(g.RoleVersion, ShouldEqual, 3)
		})

		Convey("Then raw means are compared in registration order over carriers only", func() {
			So(g.Variables, ShouldResemble, []model.VariableGap{
				{Variable: "accuracy", Group: "Competency", HighMean: 80.0, OtherMean: 40.0, Gap: 40.0, HighCount: 2, OtherCount: 2},
				{Variable: "speed", Group: "Cognitive", HighMean: 80.0, OtherMean: 40.0, Gap: 40.0, HighCount: 1, OtherCount: 1},
			})
		})

		Convey("Then theme counts are reported for both groups", func() {
			So(g.Themes, ShouldResemble, []model.ThemeGap{
				{Theme: "Achiever", HighCount: 2, OtherCount: 1, HighPercent: 100, OtherPercent: 50},
				{Theme: "Focus", HighCount: 1, OtherCount: 0, HighPercent: 50, OtherPercent: 0},
				{Theme: "Harmony", HighCount: 0, OtherCount: 2, HighPercent: 0, OtherPercent: 100},
			})
		})
	})

	Convey("Given another high rating", t, func() {
		g, err := ranking.PerformanceGap(role, profiles, 3)
		So(err, ShouldBeNil)
		So(g.HighSize, ShouldEqual, 1)
		So(g.OtherSize, ShouldEqual, 3)
	})

	Convey("Given a rating outside 1..5", t, func() {
		_, err := ranking.PerformanceGap(role, profiles, 6)
		So(errors.Is(err, ranking.ErrInvalidRating), ShouldBeTrue)
		_, err = ranking.PerformanceGap(role, profiles, -1)
		So(errors.Is(err, ranking.ErrInvalidRating), ShouldBeTrue)
	})

	Convey("Given nobody outside the high group", t, func() {
		_, err := ranking.PerformanceGap(role, ranking.IndexProfiles([]model.EmployeeProfile{
			{ID: "h1", Rating: 5, Values: map[string]float64{"accuracy": 90}},
			{ID: "u1", Values: map[string]float64{"accuracy": 10}},
		}), 5)
		So(errors.Is(err, ranking.ErrInsufficientData), ShouldBeTrue)
	})
}
