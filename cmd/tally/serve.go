package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/tally"
	"github.com/jpalmerr/tally/config"
	"github.com/spf13/cobra"
)

// serveCmd starts the Tally server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long: `Start the Tally HTTP API and dashboard.

The server will:
  - Load configuration from the YAML file, if one is given
  - Append the configured seed numbers
  - Serve the API under /numbers and the dashboard on /

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  tally serve
  tally serve -c tally.yaml
  tally serve -c tally.yaml --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
	serveCmd.Flags().IntP("port", "p", 0, "override the configured port")
}

// loadServeConfig reads the config file if given and applies flag overrides.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("--port must be between 1 and 65535, got %d", port)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	shutdownTimeout := cfg.ShutdownTimeout.Duration()

	logger.Info("config loaded",
		"port", cfg.Port,
		"parallelism", cfg.Parallelism,
		"seed", len(cfg.Seed),
		"shutdown_timeout", shutdownTimeout.String(),
	)

	t, err := tally.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create tally: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- t.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
