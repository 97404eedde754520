package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/cohortgen"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	size        int
	seed        uint64
	missingRate float64
	outPath     string
)

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic cohort for a role",
	Long: `Generates employees with values inside each variable's range of a role, spread
over performance tiers, and writes them as a cohort YAML file.

Examples:
  talentctl generate --role analyst.yaml --size 200 > cohort.yaml
  talentctl generate --role analyst.yaml --size 200 --seed 42 --missing-rate 0.05 --out cohort.yaml`,
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&rolePath, "role", "r", "", "Role definition YAML file")
	generateCmd.Flags().IntVarP(&size, "size", "s", cohortgen.DefaultSize, "Number of employees")
	generateCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible cohorts (0 is random)")
	generateCmd.Flags().Float64Var(&missingRate, "missing-rate", 0, "Probability that a value is left out")
	generateCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	_ = generateCmd.MarkFlagRequired("role")
}

func generatorOptions() []cohortgen.Option {
	opts := []cohortgen.Option{cohortgen.WithSize(size), cohortgen.WithMissingRate(missingRate)}
	if seed != 0 {
		opts = append(opts, cohortgen.WithSeed(seed))
	}
	return opts
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	role, err := readRole(rolePath)
	if err != nil {
		return fmt.Errorf("read role: %w", err)
	}
	records, err := cohortgen.New(generatorOptions()...).Generate(cmd.Context(), role)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := cohortgen.SaveCohort(outPath, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d employees to %s\n", len(records), outPath)
		return nil
	}
	return loader.EncodeEmployeesYAML(cmd.OutOrStdout(), records)
}
