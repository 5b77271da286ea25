package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/tally/internal/client"
	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:8080"

var addCmd = &cobra.Command{
	Use:   "add NUMBER...",
	Short: "Append numbers to a running server",
	Long: `Append one or more integers to a running Tally server.

Use -- before negative numbers so they are not read as flags.

Example:
  tally add 5 3 8
  tally add -- -4 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		numbers := make([]int32, len(args))
		for i, arg := range args {
			n, err := strconv.ParseInt(arg, 10, 32)
			if err != nil {
				return fmt.Errorf("invalid number %q: must be a 32-bit integer", arg)
			}
			numbers[i] = int32(n)
		}

		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Append(cmd.Context(), numbers)
		if err != nil {
			return err
		}
		return printJSON(cmd, resp)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the numbers in insertion order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		numbers, err := c.List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, numbers)
	},
}

var sortedCmd = &cobra.Command{
	Use:   "sorted",
	Short: "Print the numbers sorted",
	Long: `Print the numbers sorted ascending, or descending with --order desc.

Example:
  tally sorted
  tally sorted --order desc`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		order, _ := cmd.Flags().GetString("order")

		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		numbers, err := c.Sorted(cmd.Context(), order)
		if err != nil {
			return err
		}
		return printJSON(cmd, numbers)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search VALUE",
	Short: "Report whether a value is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid number %q: must be a 32-bit integer", args[0])
		}

		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		result, err := c.Search(cmd.Context(), int32(value))
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the average and median",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		stats, err := c.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the parallel sum on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		result, err := c.ProcessParallel(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var quantilesCmd = &cobra.Command{
	Use:   "quantiles",
	Short: "Print approximate quantiles",
	Long: `Print approximate quantiles of the stored numbers.

Example:
  tally quantiles
  tally quantiles -q 0.5,0.95`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("quantiles")
		qs, err := parseQuantileList(raw)
		if err != nil {
			return err
		}

		c, err := newAPIClient(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		values, err := c.Quantiles(cmd.Context(), qs)
		if err != nil {
			return err
		}
		return printJSON(cmd, values)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{addCmd, listCmd, sortedCmd, searchCmd, statsCmd, processCmd, quantilesCmd} {
		cmd.Flags().String("addr", defaultAddr, "address of the tally server")
		cmd.Flags().Duration("timeout", 10*time.Second, "request timeout")
		rootCmd.AddCommand(cmd)
	}

	sortedCmd.Flags().String("order", "", "sort order: asc or desc (default asc)")
	quantilesCmd.Flags().StringP("quantiles", "q", "", "comma-separated quantiles in [0, 1] (default 0.5,0.9,0.99)")
}

// newAPIClient builds a client from the --addr and --timeout flags.
func newAPIClient(cmd *cobra.Command) (*client.Client, error) {
	addr, _ := cmd.Flags().GetString("addr")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return client.New(addr, timeout)
}

// parseQuantileList parses "0.5,0.9". An empty string yields nil.
func parseQuantileList(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	qs := make([]float64, 0, len(parts))
	for _, p := range parts {
		q, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantile %q", p)
		}
		qs = append(qs, q)
	}
	return qs, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
