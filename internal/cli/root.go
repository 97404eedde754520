// Package cli contains the talentctl commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/loader"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	// Version is stamped at build time.
	Version = "dev" //nolint:gochecknoglobals // set with -ldflags

	verbose      bool   //nolint:gochecknoglobals // Cobra boilerplate
	outputFormat string //nolint:gochecknoglobals // Cobra boilerplate
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "talentctl",
	Short: "Score employee cohorts against role success profiles",
	Long: `talentctl scores employee cohorts against weighted role profiles,
ranks them by final match rate and extracts the success pattern of the
top performers.

Commands run in-process on YAML files, or against a running server with submit.

Examples:
  talentctl generate --role analyst.yaml --size 200 --out cohort.yaml
  talentctl score --role analyst.yaml --cohort cohort.yaml --top 20
  talentctl pattern --role analyst.yaml --cohort cohort.yaml --top-quantile 0.1
  talentctl submit --url http://localhost:9080 --role analyst.yaml --size 500`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
			return err
		}
		level := "warn"
		if verbose {
			level = "debug"
		}
		return logger.SetLevelString(level)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", formatTable, "Output format: table, json or yaml")
}

// render writes v in the selected structured format. It reports false for table output.
func render(w io.Writer, v any) (bool, error) {
	switch outputFormat {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case formatTable, "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown format %q", outputFormat)
	}
}

func readRole(path string) (loader.RoleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return loader.RoleRecord{}, err
	}
	defer func() { _ = f.Close() }()
	return loader.DecodeRoleYAML(f)
}

func readCohort(path string) ([]loader.EmployeeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return loader.DecodeEmployeesYAML(f)
}
