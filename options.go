package tally

import (
	"errors"
	"log/slog"
)

// tallyConfig holds mutable state during Tally construction.
type tallyConfig struct {
	title           string
	port            int
	parallelism     int
	logger          *slog.Logger
	seed            []int32
	appendCallbacks []func(AppendEvent)
}

// Option is a function that configures a [Tally] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*tallyConfig) error

// WithPort sets the HTTP port for the API and dashboard.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *tallyConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithParallelism sets the number of workers assumed when partitioning
// the parallel aggregation into chunks.
//
// Zero, the default, uses the number of logical CPUs.
//
// Returns an error if the value is negative.
func WithParallelism(n int) Option {
	return func(cfg *tallyConfig) error {
		if n < 0 {
			return errors.New("parallelism cannot be negative")
		}
		cfg.parallelism = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Tally instance.
//
// If not specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	t, err := tally.New(tally.WithLogger(logger))
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *tallyConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "Tally".
func WithTitle(title string) Option {
	return func(cfg *tallyConfig) error {
		cfg.title = title
		return nil
	}
}

// WithSeed appends numbers to the store when the instance is created.
//
// Can be called multiple times; seeds are appended in call order.
func WithSeed(numbers ...int32) Option {
	return func(cfg *tallyConfig) error {
		cfg.seed = append(cfg.seed, numbers...)
		return nil
	}
}

// WithAppendCallback registers a function to be called after every append.
//
// Multiple callbacks may be registered; they execute in registration order
// from a single goroutine. Callbacks must be non-blocking: events are
// buffered and a callback that falls behind misses events rather than
// stalling appends.
//
// Example:
//
//	t, err := tally.New(
//	    tally.WithAppendCallback(func(ev tally.AppendEvent) {
//	        log.Printf("%d numbers stored", ev.Total)
//	    }),
//	)
//
// Panics within callbacks are recovered and logged. Nil callbacks are
// silently ignored.
func WithAppendCallback(cb func(AppendEvent)) Option {
	return func(cfg *tallyConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.appendCallbacks = append(cfg.appendCallbacks, cb)
		return nil
	}
}
