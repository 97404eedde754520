package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var highRating int

//nolint:gochecknoglobals // Cobra boilerplate
var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "Compare high rated employees with the rest of a cohort",
	Long: `Scores a cohort against a role, then compares employees holding the high
performance rating with every other rated employee: mean raw value per variable
and how often each strengths theme appears. Unrated employees are left out.

Examples:
  talentctl gap --role analyst.yaml --cohort cohort.yaml
  talentctl gap --role analyst.yaml --cohort cohort.yaml --rating 4 --format json`,
	RunE: runGap,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(gapCmd)
	gapCmd.Flags().StringVarP(&rolePath, "role", "r", "", "Role definition YAML file")
	gapCmd.Flags().StringVarP(&cohortPath, "cohort", "c", "", "Cohort YAML file")
	gapCmd.Flags().StringVar(&policy, "policy", "", "Missing data policy: fail, zero or impute-mean")
	gapCmd.Flags().IntVar(&highRating, "rating", 0, "Rating that marks high performers (0 uses 5)")
	_ = gapCmd.MarkFlagRequired("role")
	_ = gapCmd.MarkFlagRequired("cohort")
}

func runGap(cmd *cobra.Command, _ []string) error {
	svc, ev, err := scoreFiles(cmd.Context())
	reportRejected(cmd.ErrOrStderr(), ev)
	if err != nil {
		return err
	}
	g, err := svc.PerformanceGap(cmd.Context(), ev.RoleID, highRating)
	if err != nil {
		return err
	}
	if done, err := render(cmd.OutOrStdout(), g); done {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "role %s v%d: %d rated %d vs %d others, %d unrated\n\n",
		g.RoleID, g.RoleVersion, g.HighSize, g.HighRating, g.OtherSize, g.Unrated)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tGROUP\tHIGH MEAN\tOTHER MEAN\tGAP")
	for _, v := range g.Variables {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%+.2f\n", v.Variable, v.Group, v.HighMean, v.OtherMean, v.Gap)
	}
	if len(g.Themes) > 0 {
		fmt.Fprintln(tw, "\nTHEME\tHIGH\tOTHER")
		for _, t := range g.Themes {
			fmt.Fprintf(tw, "%s\t%.0f%%\t%.0f%%\n", t.Theme, t.HighPercent, t.OtherPercent)
		}
	}
	return tw.Flush()
}
