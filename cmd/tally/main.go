// Package main is the entry point for the tally CLI.
//
// Tally can be run either as a library (SDK) or as a standalone binary
// with optional YAML configuration. This CLI provides the standalone binary
// and a small client for a running server.
//
// Usage:
//
//	tally serve -c tally.yaml       # Start the server
//	tally validate -c tally.yaml    # Validate configuration
//	tally add 5 3 8                 # Append numbers to a running server
//	tally stats                     # Print average and median
//	tally version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "An in-memory number collection service",
	Long: `Tally stores a sequence of integers in memory and serves it over HTTP.

Clients append numbers and then read them back sorted, search for a value,
compute the average and median, request quantiles, or run a parallel sum.

Quick start:
  1. Run: tally serve
  2. In another shell: tally add 5 3 8
  3. Run: tally stats
  4. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  parallelism: 0
  log:
    level: info
  seed: [1, 2, 3]`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this tally binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tally %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
