package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/rezamiaw/dashboard-talent-match-intelligence/internal/app"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/ranking"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	rolePath    string
	cohortPath  string
	policy      string
	topN        int
	topQuantile float64
)

//nolint:gochecknoglobals // Cobra boilerplate
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a cohort file against a role file and print the ranking",
	Long: `Scores every employee of a cohort YAML file against a role YAML file and prints
the ranking ordered by final match rate. Rejected records are listed on stderr.

Examples:
  talentctl score --role analyst.yaml --cohort cohort.yaml
  talentctl score --role analyst.yaml --cohort cohort.yaml --policy impute-mean --format json`,
	RunE: runScore,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVarP(&rolePath, "role", "r", "", "Role definition YAML file")
	scoreCmd.Flags().StringVarP(&cohortPath, "cohort", "c", "", "Cohort YAML file")
	scoreCmd.Flags().StringVar(&policy, "policy", "", "Missing data policy: fail, zero or impute-mean")
	scoreCmd.Flags().IntVarP(&topN, "top", "n", 0, "Only print the top N employees (0 prints all)")
	_ = scoreCmd.MarkFlagRequired("role")
	_ = scoreCmd.MarkFlagRequired("cohort")
}

// scoreFiles runs a cohort through an in-process service.
func scoreFiles(ctx context.Context) (*service.Service, service.Evaluation, error) {
	role, err := readRole(rolePath)
	if err != nil {
		return nil, service.Evaluation{}, fmt.Errorf("read role: %w", err)
	}
	records, err := readCohort(cohortPath)
	if err != nil {
		return nil, service.Evaluation{}, fmt.Errorf("read cohort: %w", err)
	}

	svc := service.New(
		service.WithLogger(logger.Named("talentctl")),
		service.WithPatternOptions(ranking.Options{TopQuantile: topQuantile}),
	)
	if _, err := svc.RegisterRole(ctx, role); err != nil {
		return nil, service.Evaluation{}, fmt.Errorf("register role: %w", err)
	}
	ev, err := svc.ScoreInline(ctx, role.ID, records, policy)
	if err != nil {
		return nil, ev, err
	}
	return svc, ev, nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	svc, ev, err := scoreFiles(cmd.Context())
	reportRejected(cmd.ErrOrStderr(), ev)
	if err != nil {
		return err
	}

	ranked := ev.Ranked
	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	if done, err := render(cmd.OutOrStdout(), ranked); done {
		return err
	}
	return printRanking(cmd.OutOrStdout(), svc, ev.RoleID, ranked)
}

func reportRejected(w io.Writer, ev service.Evaluation) {
	for _, r := range ev.Rejected {
		fmt.Fprintf(w, "rejected: %v\n", r)
	}
	for _, f := range ev.Failures {
		fmt.Fprintf(w, "not scored: %s: %v\n", f.EmployeeID, f.Err)
	}
}

func printRanking(w io.Writer, svc *service.Service, roleID string, ranked []model.MatchResult) error {
	var groups []string
	if len(ranked) > 0 {
		for g := range ranked[0].GroupRates {
			groups = append(groups, g)
		}
		sort.Strings(groups)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"RANK", "EMPLOYEE", "NAME", "MATCH"}, upper(groups)...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range ranked {
		name := ""
		if p, ok := svc.Employee(roleID, r.EmployeeID); ok {
			name = p.FullName
		}
		row := []string{fmt.Sprint(r.Rank), r.EmployeeID, name, fmt.Sprintf("%.2f", r.FinalMatchRate)}
		for _, g := range groups {
			row = append(row, fmt.Sprintf("%.2f", r.GroupRates[g]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
