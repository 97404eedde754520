package cohortgen_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/http/api"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/cohortgen"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

var role = loader.RoleRecord{
	ID:       "analyst",
	Name:     "Data Analyst",
	JobLevel: "III",
	Variables: []loader.RoleVariableRecord{
		{Name: "sql", Weight: 0.5, Min: 0, Max: 100, Group: "Competency"},
		{Name: "iq", Weight: 0.3, Min: 80, Max: 140, Group: "Cognitive"},
		{Name: "absences", Weight: 0.2, Min: 0, Max: 30, Rule: "inverse", Group: "Work Style"},
	},
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		ctx := context.Background()
		g := cohortgen.New(cohortgen.WithSize(40), cohortgen.WithSeed(7))

		records, err := g.Generate(ctx, role)
		So(err, ShouldBeNil)
		So(records, ShouldHaveLength, 40)

		Convey("Then records are valid and inside each range", func() {
			batch := loader.LoadEmployees(records)
			So(batch.Rejected, ShouldBeEmpty)
			So(batch.Profiles, ShouldHaveLength, 40)
			for _, p := range batch.Profiles {
				So(p.Values["sql"], ShouldBeBetweenOrEqual, 0.0, 100.0)
				So(p.Values["iq"], ShouldBeBetweenOrEqual, 80.0, 140.0)
				So(p.Values["absences"], ShouldBeBetweenOrEqual, 0.0, 30.0)
				So(p.Strengths, ShouldHaveLength, loader.MaxStrengths)
				So(p.Rating, ShouldBeBetweenOrEqual, 1, loader.MaxRating)
			}
			So(records[0].ID, ShouldEqual, "EMP0001")
		})

		Convey("Then the same seed gives the same cohort", func() {
			again, err := cohortgen.New(cohortgen.WithSize(40), cohortgen.WithSeed(7)).Generate(ctx, role)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, records)
		})

		Convey("Then records encode to cohort YAML", func() {
			var buf bytes.Buffer
			So(loader.EncodeEmployeesYAML(&buf, records), ShouldBeNil)
			decoded, err := loader.DecodeEmployeesYAML(&buf)
			So(err, ShouldBeNil)
			So(decoded, ShouldHaveLength, 40)
		})
	})

	Convey("Given a missing rate", t, func() {
		records, err := cohortgen.New(cohortgen.WithSize(30), cohortgen.WithSeed(1), cohortgen.WithMissingRate(0.5)).
			Generate(context.Background(), role)
		So(err, ShouldBeNil)

		Convey("Then some values are left out", func() {
			missing := 0
			for _, r := range records {
				missing += len(role.Variables) - len(r.Values)
			}
			So(missing, ShouldBeGreaterThan, 0)
		})
	})

	Convey("Given unseeded generation with a prefix", t, func() {
		records, err := cohortgen.New(cohortgen.WithSize(2), cohortgen.WithIDPrefix("x-")).Generate(context.Background(), role)
		So(err, ShouldBeNil)
		So(records[0].ID, ShouldStartWith, "x-")
		So(records[0].ID, ShouldNotEqual, records[1].ID)
	})

	Convey("Given invalid input", t, func() {
		_, err := cohortgen.New().Generate(context.Background(), loader.RoleRecord{ID: "empty"})
		So(errors.Is(err, cohortgen.ErrInvalidRole), ShouldBeTrue)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = cohortgen.New().Generate(ctx, role)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}

func TestVerifyRanking(t *testing.T) {
	Convey("Given ranked results", t, func() {
		good := []model.MatchResult{
			{EmployeeID: "A", FinalMatchRate: 90, Rank: 1},
			{EmployeeID: "B", FinalMatchRate: 80, Rank: 2},
			{EmployeeID: "C", FinalMatchRate: 80, Rank: 3},
		}
		So(cohortgen.VerifyRanking(good, 0), ShouldBeNil)
		So(cohortgen.VerifyConsistency(good, good[:2]), ShouldBeNil)

		Convey("Unsorted results fail", func() {
			bad := []model.MatchResult{good[1], good[0]}
			bad[0].Rank, bad[1].Rank = 1, 2
			So(errors.Is(cohortgen.VerifyRanking(bad, 0), cohortgen.ErrInconsistentRanking), ShouldBeTrue)
		})

		Convey("Ties out of id order fail", func() {
			bad := []model.MatchResult{good[0], good[2], good[1]}
			bad[1].Rank, bad[2].Rank = 2, 3
			So(errors.Is(cohortgen.VerifyRanking(bad, 0), cohortgen.ErrInconsistentRanking), ShouldBeTrue)
		})

		Convey("Gaps in ranks fail", func() {
			So(cohortgen.VerifyRanking(good, 5), ShouldNotBeNil)
		})

		Convey("Diverging tops fail", func() {
			So(cohortgen.VerifyConsistency(good, good[1:]), ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		mux := http.NewServeMux()
		api.NewServer(service.New()).Register(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		ctx := context.Background()
		records, err := cohortgen.New(cohortgen.WithSize(25), cohortgen.WithSeed(3)).Generate(ctx, role)
		So(err, ShouldBeNil)

		Convey("When a generated cohort is submitted", func() {
			out := filepath.Join(t.TempDir(), "cohort", "analyst.yaml")
			stats, err := cohortgen.Run(ctx, cohortgen.Config{BaseURL: ts.URL, TopN: 10, OutputFile: out}, role, records, nil)

			Convey("Then every record is ranked and the ranking verifies", func() {
				So(err, ShouldBeNil)
				So(stats.Submitted, ShouldEqual, 25)
				So(stats.Ranked, ShouldEqual, 25)
				So(stats.Verified, ShouldEqual, 10)
				So(stats.RoleVersion, ShouldEqual, 1)
				So(stats.SuccessRate(), ShouldEqual, 100.0)

				f, err := os.Open(out)
				So(err, ShouldBeNil)
				defer f.Close()
				saved, err := loader.DecodeEmployeesYAML(f)
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 25)
			})
		})

		Convey("When the client asks for an unknown role", func() {
			c := cohortgen.NewClient(ts.URL, 0)
			_, err := c.Pattern(ctx, "ghost", 0)
			So(errors.Is(err, cohortgen.ErrUnexpectedStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "unknown_role")
		})
	})

	Convey("Given no server", t, func() {
		_, err := cohortgen.Run(context.Background(), cohortgen.Config{BaseURL: "http://127.0.0.1:1"}, role, nil, nil)
		So(err, ShouldNotBeNil)
	})
}
