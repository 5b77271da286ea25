package tally

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/tally/dashboard"
	"github.com/jpalmerr/tally/internal/server"
	"github.com/jpalmerr/tally/internal/store"
)

const (
	defaultPort = 8080
)

// AppendEvent describes a batch of numbers appended to the store.
//
// AppendEvent is delivered to callbacks registered with [WithAppendCallback].
// Numbers is a copy owned by the callback.
type AppendEvent struct {
	// Numbers are the values added by the append, in order.
	Numbers []int32

	// Total is the number of stored values after the append.
	Total int

	// AppendedAt is when the batch was stored.
	AppendedAt time.Time
}

// Tally is the main orchestrator for the number store and its HTTP API.
//
// Tally owns one in-memory store for its whole lifetime and serves it over
// HTTP. It is created using [New] with functional options and started with
// [Tally.Start].
//
// The typical lifecycle is:
//
//	t, err := tally.New(tally.WithPort(9090))
//	if err != nil {
//	    slog.Error("failed to create tally", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	t.Start(ctx) // blocks until context cancelled
//
// The numbers are lost when the process exits.
type Tally struct {
	title           string
	port            int
	parallelism     int
	logger          *slog.Logger
	appendCallbacks []func(AppendEvent)
	store           *store.MemoryStore
}

// New creates a new [Tally] instance with the given options.
//
// Options have sensible defaults:
//   - Port: 8080
//   - Parallelism: number of logical CPUs
//   - Logger: [slog.Default]
//
// Numbers given with [WithSeed] are appended before New returns.
// Returns an error if any option is invalid.
func New(opts ...Option) (*Tally, error) {
	cfg := &tallyConfig{
		port: defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}
	if cfg.parallelism < 0 {
		return nil, errors.New("parallelism cannot be negative")
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	st := store.NewMemoryStore(cfg.parallelism, logger)
	st.Append(cfg.seed)

	return &Tally{
		title:           cfg.title,
		port:            cfg.port,
		parallelism:     st.Parallelism(),
		logger:          logger,
		appendCallbacks: cfg.appendCallbacks,
		store:           st,
	}, nil
}

// Start serves the HTTP API and dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// The API is available at http://localhost:<port>/numbers and the dashboard
// at http://localhost:<port>.
//
// The caller controls the lifecycle via context cancellation. For signal handling,
// use [signal.NotifyContext]:
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//	t.Start(ctx)
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (t *Tally) Start(ctx context.Context) error {
	t.logger.Info("tally starting",
		"numbers", t.store.Len(),
		"parallelism", t.parallelism,
	)
	t.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", t.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	// track the event consumer goroutine to ensure clean shutdown
	events := t.store.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range events {
			for _, cb := range t.appendCallbacks {
				invokeCallbackSafe(cb, toPublicEvent(ev), t.logger)
			}
			t.logger.Debug("append observed", "added", len(ev.Numbers), "total", ev.Total)
		}
	}()

	// cleanup closes the subscription and waits for pending callbacks
	cleanup := func() {
		t.store.Unsubscribe(events)
		wg.Wait()
	}

	httpServer := server.NewServer(t.store, t.port, dashboard.Assets, t.title, t.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	<-httpServer.Stopped()
	cleanup()
	t.logger.Info("tally stopped", "numbers", t.store.Len())
	return nil
}

// Port returns the configured HTTP port.
func (t *Tally) Port() int {
	return t.port
}

// Parallelism returns the worker hint used for parallel aggregation.
func (t *Tally) Parallelism() int {
	return t.parallelism
}

// Len returns how many numbers are currently stored.
func (t *Tally) Len() int {
	return t.store.Len()
}

// toPublicEvent converts a store event to the public type.
// Each callback gets its own copy of the numbers.
func toPublicEvent(ev store.AppendEvent) AppendEvent {
	return AppendEvent{
		Numbers:    append([]int32(nil), ev.Numbers...),
		Total:      ev.Total,
		AppendedAt: ev.AppendedAt,
	}
}

// invokeCallbackSafe calls an append callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(AppendEvent), ev AppendEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("append callback panicked",
				"panic", r,
				"total", ev.Total,
			)
		}
	}()
	cb(ev)
}
