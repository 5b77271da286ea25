package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jpalmerr/tally"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is passed through unchanged; pass the result of
// [LogConfig.NewLogger] to honour the configured level and format.
// Empty optional fields produce no option so SDK defaults apply.
func BuildOptions(cfg *Config, logger *slog.Logger) []tally.Option {
	opts := []tally.Option{
		tally.WithPort(cfg.Port),
		tally.WithParallelism(cfg.Parallelism),
	}

	if logger != nil {
		opts = append(opts, tally.WithLogger(logger))
	}

	if cfg.Title != "" {
		opts = append(opts, tally.WithTitle(cfg.Title))
	}

	if len(cfg.Seed) > 0 {
		opts = append(opts, tally.WithSeed(cfg.Seed...))
	}

	return opts
}

// NewLogger builds a logger writing to w with the configured level and format.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: l.SlogLevel()}

	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}
