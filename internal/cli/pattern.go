package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Extract the success pattern of a scored cohort",
	Long: `Scores a cohort against a role, splits the ranking into the top quantile and
the rest, and prints per variable how strongly the two groups separate.

Examples:
  talentctl pattern --role analyst.yaml --cohort cohort.yaml
  talentctl pattern --role analyst.yaml --cohort cohort.yaml --top-quantile 0.1 --format yaml`,
	RunE: runPattern,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(patternCmd)
	patternCmd.Flags().StringVarP(&rolePath, "role", "r", "", "Role definition YAML file")
	patternCmd.Flags().StringVarP(&cohortPath, "cohort", "c", "", "Cohort YAML file")
	patternCmd.Flags().StringVar(&policy, "policy", "", "Missing data policy: fail, zero or impute-mean")
	patternCmd.Flags().Float64VarP(&topQuantile, "top-quantile", "q", 0, "Share of the ranking treated as top performers (0 uses 0.25)")
	_ = patternCmd.MarkFlagRequired("role")
	_ = patternCmd.MarkFlagRequired("cohort")
}

func runPattern(cmd *cobra.Command, _ []string) error {
	svc, ev, err := scoreFiles(cmd.Context())
	reportRejected(cmd.ErrOrStderr(), ev)
	if err != nil {
		return err
	}
	p, err := svc.Pattern(cmd.Context(), ev.RoleID, topQuantile)
	if err != nil {
		return err
	}
	if done, err := render(cmd.OutOrStdout(), p); done {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "role %s v%d: top %d vs rest %d (quantile %g)\n\n", p.RoleID, p.RoleVersion, p.TopSize, p.RestSize, p.TopQuantile)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tGROUP\tTOP MEAN\tREST MEAN\tGAP\tSTATISTIC")
	for _, s := range p.Variables {
		stat := fmt.Sprintf("%.3f", s.Statistic)
		if s.Degenerate {
			stat += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.3f\t%s\n", s.Variable, s.Group, s.TopMean, s.RestMean, s.Difference, stat)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(p.Themes) > 0 {
		themes := make([]string, 0, len(p.Themes))
		for _, t := range p.Themes {
			themes = append(themes, fmt.Sprintf("%s %.0f%%", t.Theme, t.TopPercent))
		}
		fmt.Fprintf(out, "\nstrengths in the top group: %s\n", strings.Join(themes, ", "))
	}
	return nil
}
