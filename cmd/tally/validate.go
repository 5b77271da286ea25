package main

import (
	"fmt"

	"github.com/jpalmerr/tally/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a Tally configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  tally validate -c tally.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	parallelism := "auto"
	if cfg.Parallelism > 0 {
		parallelism = fmt.Sprint(cfg.Parallelism)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:             %d\n", cfg.Port)
	fmt.Fprintf(out, "  Parallelism:      %s\n", parallelism)
	fmt.Fprintf(out, "  Shutdown timeout: %s\n", cfg.ShutdownTimeout.Duration())
	fmt.Fprintf(out, "  Log:              %s (%s)\n", cfg.Log.Level, cfg.Log.Format)
	fmt.Fprintf(out, "  Seed numbers:     %d\n", len(cfg.Seed))

	return nil
}
