package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/adapters/http/api"
	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/cohortgen"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
)

const roleYAML = `id: analyst
name: Data Analyst
job_level: III
variables:
  - name: sql
    weight: 0.6
    min: 0
    max: 100
    group: Competency
  - name: iq
    weight: 0.4
    min: 80
    max: 140
    group: Cognitive
`

const ratedCohortYAML = `employees:
  - id: H1
    full_name: High One
    values: {sql: 90, iq: 130}
    strengths: [Achiever]
    rating: 5
  - id: H2
    full_name: High Two
    values: {sql: 80, iq: 120}
    strengths: [Achiever, Focus]
    rating: 5
  - id: O1
    full_name: Other One
    values: {sql: 50, iq: 100}
    strengths: [Harmony]
    rating: 3
  - id: O2
    full_name: Other Two
    values: {sql: 30, iq: 90}
    strengths: [Achiever]
    rating: 2
  - id: U1
    full_name: Unrated One
    values: {sql: 60, iq: 110}
`

// execute runs talentctl with fresh flag values.
func execute(args ...string) (string, string, error) {
	rolePath, cohortPath, policy, outPath, savePath = "", "", "", "", ""
	topN, topQuantile, seed, missingRate = 0, 0, 0, 0
	highRating = 0
	size = cohortgen.DefaultSize
	outputFormat, verbose = formatTable, false
	baseURL, timeout = "http://localhost:9080", cohortgen.DefaultTimeout

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestCommands(t *testing.T) {
	Convey("Given a role file", t, func() {
		dir := t.TempDir()
		role := filepath.Join(dir, "analyst.yaml")
		So(os.WriteFile(role, []byte(roleYAML), 0o600), ShouldBeNil)
		cohort := filepath.Join(dir, "cohort.yaml")

		_, stderr, err := execute("generate", "--role", role, "--size", "12", "--seed", "5", "--out", cohort)
		So(err, ShouldBeNil)
		So(stderr, ShouldContainSubstring, "wrote 12 employees")

		Convey("generate writes YAML to stdout without --out", func() {
			stdout, _, err := execute("generate", "-r", role, "-s", "4", "--seed", "9")
			So(err, ShouldBeNil)
			records, err := loader.DecodeEmployeesYAML(strings.NewReader(stdout))
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 4)
		})

		Convey("score prints a ranking table", func() {
			stdout, _, err := execute("score", "--role", role, "--cohort", cohort, "--top", "3")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(stdout), "\n")
			So(lines, ShouldHaveLength, 4)
			So(lines[0], ShouldContainSubstring, "RANK")
			So(lines[0], ShouldContainSubstring, "COGNITIVE")
			So(lines[1], ShouldContainSubstring, "EMP")
		})

		Convey("score renders JSON", func() {
			stdout, _, err := execute("score", "--role", role, "--cohort", cohort, "--format", "json")
			So(err, ShouldBeNil)
			var ranked []model.MatchResult
			So(json.Unmarshal([]byte(stdout), &ranked), ShouldBeNil)
			So(ranked, ShouldHaveLength, 12)
			So(ranked[0].Rank, ShouldEqual, 1)
		})

		Convey("pattern prints the separation table", func() {
			stdout, _, err := execute("pattern", "--role", role, "--cohort", cohort, "--top-quantile", "0.25")
			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, "top 3 vs rest 9")
			So(stdout, ShouldContainSubstring, "STATISTIC")
			So(stdout, ShouldContainSubstring, "strengths in the top group")
		})

		Convey("pattern renders YAML", func() {
			stdout, _, err := execute("pattern", "-r", role, "-c", cohort, "-f", "yaml")
			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, "top_quantile: 0.25")
		})

		Convey("gap compares high rated employees with the others", func() {
			rated := filepath.Join(dir, "rated.yaml")
			So(os.WriteFile(rated, []byte(ratedCohortYAML), 0o600), ShouldBeNil)

			stdout, _, err := execute("gap", "--role", role, "--cohort", rated)
			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, "2 rated 5 vs 2 others, 1 unrated")
			So(stdout, ShouldContainSubstring, "HIGH MEAN")
			So(stdout, ShouldContainSubstring, "+45.00")
			So(stdout, ShouldContainSubstring, "Achiever")

			stdout, _, err = execute("gap", "-r", role, "-c", rated, "-f", "json")
			So(err, ShouldBeNil)
			var g model.PerformanceGap
			So(json.Unmarshal([]byte(stdout), &g), ShouldBeNil)
			So(g.HighSize, ShouldEqual, 2)
			So(g.Variables[0].HighMean, ShouldEqual, 85.0)

			_, _, err = execute("gap", "-r", role, "-c", rated, "--rating", "4")
			So(err, ShouldNotBeNil)
		})

		Convey("submit scores against a running server", func() {
			mux := http.NewServeMux()
			api.NewServer(service.New()).Register(mux)
			ts := httptest.NewServer(mux)
			defer ts.Close()

			stdout, _, err := execute("submit", "--url", ts.URL, "--role", role, "--size", "10", "--seed", "1", "--top", "5")
			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, "ranked 10")
			So(stdout, ShouldContainSubstring, "verified 5")

			stdout, _, err = execute("submit", "--url", ts.URL, "--role", role, "--cohort", cohort)
			So(err, ShouldBeNil)
			So(stdout, ShouldContainSubstring, "analyst v2")
		})

		Convey("missing files and bad formats fail", func() {
			_, _, err := execute("score", "--role", role, "--cohort", filepath.Join(dir, "nope.yaml"))
			So(err, ShouldNotBeNil)

			_, _, err = execute("score", "--role", role, "--cohort", cohort, "--format", "xml")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown format")
		})
	})
}
