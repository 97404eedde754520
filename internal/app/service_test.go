package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/narrative"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/registry"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/scoring"
)

func analystRole() loader.RoleRecord {
	return loader.RoleRecord{
		ID:       "analyst",
		Name:     "Data Analyst",
		JobLevel: "III",
		Purpose:  "Turn data into decisions",
		Variables: []loader.RoleVariableRecord{
			{Name: "sql", Weight: 0.6, Min: 0, Max: 100, Group: "Competency"},
			{Name: "iq", Weight: 0.4, Min: 80, Max: 140, Group: "Cognitive"},
		},
	}
}

// cohort returns n employees whose rates strictly decrease with the index.
func cohort(n int) []loader.EmployeeRecord {
	out := make([]loader.EmployeeRecord, n)
	for i := range n {
		out[i] = loader.EmployeeRecord{
			ID:        fmt.Sprintf("E%02d", i+1),
			FullName:  fmt.Sprintf("Employee %d", i+1),
			Values:    map[string]any{"sql": float64(95 - 5*i), "iq": float64(135 - 3*i)},
			Strengths: []string{"Analytical", fmt.Sprintf("Theme%d", i%2)},
		}
	}
	return out
}

type narratorFunc func(context.Context, narrative.Brief) (narrative.Narrative, error)

func (f narratorFunc) Describe(ctx context.Context, b narrative.Brief) (narrative.Narrative, error) {
	return f(ctx, b)
}

func TestRegisterRole(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("When a valid role is registered twice", func() {
			p1, err := svc.RegisterRole(ctx, analystRole())
			So(err, ShouldBeNil)
			p2, err := svc.RegisterRole(ctx, analystRole())
			So(err, ShouldBeNil)

			Convey("Then the version is bumped and the role is listed", func() {
				So(p1.Version, ShouldEqual, 1)
				So(p2.Version, ShouldEqual, 2)
				So(svc.Roles(), ShouldHaveLength, 1)
				So(svc.Variables(), ShouldHaveLength, 2)
				got, err := svc.Role("analyst")
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "Data Analyst")
			})
		})

		Convey("When the weights do not sum to the total", func() {
			rec := analystRole()
			rec.Variables[0].Weight = 0.7
			_, err := svc.RegisterRole(ctx, rec)
			So(errors.Is(err, registry.ErrWeightSum), ShouldBeTrue)
		})

		Convey("When the record is malformed", func() {
			_, err := svc.RegisterRole(ctx, loader.RoleRecord{})
			So(errors.Is(err, loader.ErrValidation), ShouldBeTrue)
		})

		Convey("When a variable uses an unknown rule", func() {
			rec := analystRole()
			rec.Variables[0].Rule = "quadratic"
			_, err := svc.RegisterRole(ctx, rec)
			So(err, ShouldNotBeNil)
		})

		Convey("When an unknown role is resolved", func() {
			_, err := svc.Role("ghost")
			So(errors.Is(err, registry.ErrUnknownRole), ShouldBeTrue)
		})
	})
}

func TestScoreInline(t *testing.T) {
	Convey("Given a registered role", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithScoreConcurrency(4))
		_, err := svc.RegisterRole(ctx, analystRole())
		So(err, ShouldBeNil)

		records := cohort(8)
		records = append(records,
			loader.EmployeeRecord{ID: "MISSING", Values: map[string]any{"sql": 50.0}},
			loader.EmployeeRecord{ID: "BAD", Values: map[string]any{"sql": "lots", "iq": 100.0}},
		)

		Convey("When scored with the default fail policy", func() {
			ev, err := svc.ScoreInline(ctx, "analyst", records, "")
			So(err, ShouldBeNil)

			Convey("Then valid employees are ranked and problems are reported", func() {
				So(ev.Ranked, ShouldHaveLength, 8)
				So(ev.Ranked[0].EmployeeID, ShouldEqual, "E01")
				So(ev.Ranked[0].Rank, ShouldEqual, 1)
				So(ev.Ranked[7].EmployeeID, ShouldEqual, "E08")
				So(ev.Failures, ShouldHaveLength, 1)
				So(ev.Failures[0].EmployeeID, ShouldEqual, "MISSING")
				So(ev.Rejected, ShouldHaveLength, 1)
				So(ev.Rejected[0].RecordID, ShouldEqual, "BAD")
				So(ev.Pattern, ShouldNotBeNil)
				So(ev.Pattern.TopSize, ShouldEqual, 2)
			})

			Convey("And the published ranking is searchable and paginated", func() {
				page, err := svc.Ranking(ctx, "analyst", service.RankingQuery{Page: 2, Size: 3})
				So(err, ShouldBeNil)
				So(page.Page.Total, ShouldEqual, 8)
				So(page.Page.Pages, ShouldEqual, 3)
				So(page.Results[0].EmployeeID, ShouldEqual, "E04")

				found, err := svc.Ranking(ctx, "analyst", service.RankingQuery{Query: "employee 3"})
				So(err, ShouldBeNil)
				So(found.Results, ShouldHaveLength, 1)
				So(found.Results[0].EmployeeID, ShouldEqual, "E03")

				one, err := svc.EmployeeResult(ctx, "analyst", "E02")
				So(err, ShouldBeNil)
				So(one.Rank, ShouldEqual, 2)
				So(one.Contributions, ShouldHaveLength, 2)
			})
		})

		Convey("When the zero policy is requested", func() {
			ev, err := svc.ScoreInline(ctx, "analyst", records, "zero")
			So(err, ShouldBeNil)
			So(ev.Ranked, ShouldHaveLength, 9)
			So(ev.Failures, ShouldBeEmpty)
		})

		Convey("When an invalid policy is requested", func() {
			_, err := svc.ScoreInline(ctx, "analyst", records, "guess")
			So(errors.Is(err, scoring.ErrInvalidPolicy), ShouldBeTrue)
		})

		Convey("When every record is rejected", func() {
			_, err := svc.ScoreInline(ctx, "analyst", []loader.EmployeeRecord{{ID: ""}}, "")
			So(errors.Is(err, service.ErrNoEmployees), ShouldBeTrue)
			So(errors.Is(err, loader.ErrValidation), ShouldBeTrue)
		})

		Convey("When the role is unknown", func() {
			_, err := svc.ScoreInline(ctx, "ghost", records, "")
			So(errors.Is(err, registry.ErrUnknownRole), ShouldBeTrue)
		})
	})
}

func TestPattern(t *testing.T) {
	Convey("Given a published ranking", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithPatternOptions(ranking.Options{TopQuantile: 0.25, MinCohort: 5}))
		_, err := svc.RegisterRole(ctx, analystRole())
		So(err, ShouldBeNil)

		Convey("With enough employees", func() {
			_, err := svc.ScoreInline(ctx, "analyst", cohort(8), "")
			So(err, ShouldBeNil)

			p, err := svc.Pattern(ctx, "analyst", 0)
			So(err, ShouldBeNil)
			So(p.TopSize, ShouldEqual, 2)
			So(p.RestSize, ShouldEqual, 6)
			So(p.Variables, ShouldHaveLength, 2)
			So(p.Variables[0].Difference, ShouldBeGreaterThan, 0)
			So(p.Themes[0].Theme, ShouldEqual, "Analytical")
			So(p.Themes[0].TopPercent, ShouldEqual, 100.0)

			half, err := svc.Pattern(ctx, "analyst", 0.5)
			So(err, ShouldBeNil)
			So(half.TopSize, ShouldEqual, 4)
		})

		Convey("After the role is re-registered with other variables", func() {
			_, err := svc.ScoreInline(ctx, "analyst", cohort(8), "")
			So(err, ShouldBeNil)
			rec := analystRole()
			rec.Variables = []loader.RoleVariableRecord{
				{Name: "sql", Weight: 0.5, Min: 0, Max: 100, Group: "Competency"},
				{Name: "python", Weight: 0.5, Min: 0, Max: 10, Group: "Competency"},
			}
			p2, err := svc.RegisterRole(ctx, rec)
			So(err, ShouldBeNil)
			So(p2.Version, ShouldEqual, 2)

			p, err := svc.Pattern(ctx, "analyst", 0)
			So(err, ShouldBeNil)
			So(p.RoleVersion, ShouldEqual, 1)
			names := []string{p.Variables[0].Variable, p.Variables[1].Variable}
			So(names, ShouldContain, "sql")
			So(names, ShouldContain, "iq")
			So(p.Variables, ShouldHaveLength, 2)
		})

		Convey("With too few employees", func() {
			_, err := svc.ScoreInline(ctx, "analyst", cohort(3), "")
			So(err, ShouldBeNil)
			_, err = svc.Pattern(ctx, "analyst", 0)
			So(errors.Is(err, ranking.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("Before any run", func() {
			_, err := svc.Pattern(ctx, "analyst", 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNarrative(t *testing.T) {
	Convey("Given a ranked role", t, func() {
		ctx := context.Background()
		var got narrative.Brief
		fake := narratorFunc(func(_ context.Context, b narrative.Brief) (narrative.Narrative, error) {
			got = b
			return narrative.Narrative{Provider: "fake", JobDescription: "desc"}, nil
		})
		svc := service.New(service.WithNarrator(fake))
		_, err := svc.RegisterRole(ctx, analystRole())
		So(err, ShouldBeNil)
		_, err = svc.ScoreInline(ctx, "analyst", cohort(8), "")
		So(err, ShouldBeNil)

		Convey("Benchmarks and the pattern reach the narrator", func() {
			out, err := svc.Narrative(ctx, "analyst", service.NarrativeRequest{BenchmarkIDs: []string{"E01", "E02"}, Purpose: "Grow the BI team"})
			So(err, ShouldBeNil)
			So(out.JobDescription, ShouldEqual, "desc")
			So(got.Purpose, ShouldEqual, "Grow the BI team")
			So(got.Benchmarks, ShouldHaveLength, 2)
			So(got.Benchmarks[0].FullName, ShouldEqual, "Employee 1")
			So(got.Separations, ShouldHaveLength, 2)
		})

		Convey("Too many benchmarks are rejected before the narrator", func() {
			_, err := svc.Narrative(ctx, "analyst", service.NarrativeRequest{BenchmarkIDs: []string{"E01", "E02", "E03", "E04"}})
			So(errors.Is(err, narrative.ErrInvalidBrief), ShouldBeTrue)
		})

		Convey("An unranked benchmark is reported", func() {
			_, err := svc.Narrative(ctx, "analyst", service.NarrativeRequest{BenchmarkIDs: []string{"NOPE"}})
			So(errors.Is(err, service.ErrBenchmark), ShouldBeTrue)
		})
	})

	Convey("Without a narrator the request reports no provider", t, func() {
		ctx := context.Background()
		svc := service.New()
		_, err := svc.RegisterRole(ctx, analystRole())
		So(err, ShouldBeNil)
		_, err = svc.ScoreInline(ctx, "analyst", cohort(5), "")
		So(err, ShouldBeNil)
		_, err = svc.Narrative(ctx, "analyst", service.NarrativeRequest{BenchmarkIDs: []string{"E01"}})
		So(errors.Is(err, narrative.ErrNoProvider), ShouldBeTrue)
	})
}

func TestSubmitRunWithoutStorage(t *testing.T) {
	Convey("Async runs need a storage collaborator", t, func() {
		_, _, err := service.New().SubmitRun(context.Background(), "analyst", "", "")
		So(errors.Is(err, service.ErrNoStorage), ShouldBeTrue)
	})
}

func TestStats(t *testing.T) {
	Convey("Stats report registry and store sizes", t, func() {
		ctx := context.Background()
		svc := service.New()
		_, err := svc.RegisterRole(ctx, analystRole())
		So(err, ShouldBeNil)
		_, err = svc.ScoreInline(ctx, "analyst", cohort(4), "")
		So(err, ShouldBeNil)

		stats := svc.Stats(ctx)
		So(stats["roles"], ShouldEqual, 1)
		So(stats["rankedByRole"], ShouldResemble, map[string]int{"analyst": 4})
		So(stats["missingPolicy"], ShouldEqual, "fail")
		So(stats["storageEnabled"], ShouldEqual, false)
	})
}
