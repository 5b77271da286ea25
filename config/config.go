// Package config provides YAML configuration parsing for Tally.
//
// This package enables running Tally as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Scores
//	port: ${TALLY_PORT:-8080}
//	parallelism: 0          # 0 uses every CPU
//	shutdown_timeout: 10s
//
//	log:
//	  level: info           # debug, info, warn, error
//	  format: json          # json or text
//
//	seed: [5, 3, 8]
//
// Any value may reference environment variables as ${VAR} or
// ${VAR:-default}. References are substituted into the document text before
// it is parsed; full-line comments are skipped.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort            = 8080
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
)

// logLevels maps accepted level names to slog levels.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config is the root configuration structure for Tally.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "Tally" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Parallelism is the worker count used to partition the parallel
	// aggregation. Zero uses the number of logical CPUs.
	Parallelism int `yaml:"parallelism"`

	// ShutdownTimeout bounds how long the CLI waits for a graceful stop.
	// Accepts duration strings like "10s" or "500ms". Defaults to 10s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`

	// Seed are numbers appended to the store at startup, in order.
	Seed []int32 `yaml:"seed"`
}

// LogConfig selects the level and output format of the CLI logger.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`
}

// SlogLevel returns the slog level for the configured name.
// Unknown names map to info; [Parse] rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	if lvl, ok := logLevels[strings.ToLower(l.Level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandDocument expands environment variables in the raw YAML document so
// that substituted text is parsed like any other YAML, including inside flow
// sequences such as "[${SEED:-1}, 2]". Lines whose first non-blank character
// is '#' are comments and are left untouched.
func expandDocument(data []byte) ([]byte, error) {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if !strings.Contains(line, "${") || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		expanded, err := expandEnvVars(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines[i] = expanded
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before decoding.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Parse parses YAML configuration data.
//
// An empty document is valid and yields [Default]. Defaults are applied
// for Port (8080), ShutdownTimeout (10s) and Log (info, json).
func Parse(data []byte) (*Config, error) {
	expanded, err := expandDocument(data)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(defaultShutdownTimeout)
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// validate checks ranges and enumerations after defaults are applied.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism cannot be negative, got %d", c.Parallelism)
	}

	if c.ShutdownTimeout.Duration() < 0 {
		return fmt.Errorf("shutdown_timeout cannot be negative, got %s", c.ShutdownTimeout.Duration())
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}
