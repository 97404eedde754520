package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/cohortgen"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	baseURL  string
	timeout  time.Duration
	savePath string
)

//nolint:gochecknoglobals // Cobra boilerplate
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Register a role on a running server and score a cohort against it",
	Long: `Registers the role, scores a cohort file (or a generated cohort when --cohort is
omitted) on a running server, then fetches the published ranking and checks that
it is ordered and matches the scoring response.

Examples:
  talentctl submit --url http://localhost:9080 --role analyst.yaml --cohort cohort.yaml
  talentctl submit --role analyst.yaml --size 1000 --seed 7 --top 50 --save submitted.yaml`,
	RunE: runSubmit,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:9080", "Base URL of the server")
	submitCmd.Flags().StringVarP(&rolePath, "role", "r", "", "Role definition YAML file")
	submitCmd.Flags().StringVarP(&cohortPath, "cohort", "c", "", "Cohort YAML file (default generates one)")
	submitCmd.Flags().StringVar(&policy, "policy", "", "Missing data policy: fail, zero or impute-mean")
	submitCmd.Flags().IntVarP(&size, "size", "s", cohortgen.DefaultSize, "Number of generated employees")
	submitCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible cohorts (0 is random)")
	submitCmd.Flags().Float64Var(&missingRate, "missing-rate", 0, "Probability that a generated value is left out")
	submitCmd.Flags().IntVarP(&topN, "top", "n", 0, "Ranking entries to fetch and verify (0 verifies all)")
	submitCmd.Flags().DurationVar(&timeout, "timeout", cohortgen.DefaultTimeout, "HTTP request timeout")
	submitCmd.Flags().StringVar(&savePath, "save", "", "Save the submitted cohort to this YAML file")
	_ = submitCmd.MarkFlagRequired("role")
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	role, err := readRole(rolePath)
	if err != nil {
		return fmt.Errorf("read role: %w", err)
	}

	var records []loader.EmployeeRecord
	if cohortPath != "" {
		if records, err = readCohort(cohortPath); err != nil {
			return fmt.Errorf("read cohort: %w", err)
		}
	} else if records, err = cohortgen.New(generatorOptions()...).Generate(ctx, role); err != nil {
		return err
	}

	stats, err := cohortgen.Run(ctx, cohortgen.Config{
		BaseURL:    baseURL,
		Timeout:    timeout,
		Policy:     policy,
		TopN:       topN,
		OutputFile: savePath,
	}, role, records, logger.Named("submit"))
	if err != nil {
		return err
	}
	if done, err := render(cmd.OutOrStdout(), stats); done {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "role %s v%d: submitted %d, ranked %d, rejected %d, failed %d, verified %d (%.1f%%) in %s\n",
		role.ID, stats.RoleVersion, stats.Submitted, stats.Ranked, stats.Rejected, stats.Failed, stats.Verified,
		stats.SuccessRate(), stats.Duration.Round(time.Millisecond))
	return nil
}
