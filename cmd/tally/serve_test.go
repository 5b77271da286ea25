package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newServeFlags returns a command carrying the serve flags, parsed from args.
func newServeFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{}
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().IntP("port", "p", 0, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cmd
}

func TestLoadServeConfig_NoFileUsesDefaults(t *testing.T) {
	cfg, err := loadServeConfig(newServeFlags(t))
	if err != nil {
		t.Fatalf("loadServeConfig() error = %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}

func TestLoadServeConfig_PortOverride(t *testing.T) {
	configPath := writeConfig(t, "port: 9090\nseed: [4]\n")

	cfg, err := loadServeConfig(newServeFlags(t, "-c", configPath, "--port", "9999"))
	if err != nil {
		t.Fatalf("loadServeConfig() error = %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if len(cfg.Seed) != 1 {
		t.Errorf("len(Seed) = %d, want 1", len(cfg.Seed))
	}
}

func TestLoadServeConfig_InvalidPortOverride(t *testing.T) {
	_, err := loadServeConfig(newServeFlags(t, "--port", "70000"))
	if err == nil {
		t.Fatal("loadServeConfig() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "--port") {
		t.Errorf("error = %v, want mention of --port", err)
	}
}

func TestLoadServeConfig_BadFile(t *testing.T) {
	_, err := loadServeConfig(newServeFlags(t, "-c", "/nonexistent/tally.yaml"))
	if err == nil {
		t.Fatal("loadServeConfig() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to load config") {
		t.Errorf("error = %v, want 'failed to load config'", err)
	}
}
