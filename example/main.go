package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/tally"
)

func main() {
	t, err := tally.New(
		tally.WithPort(8080),
		tally.WithTitle("Tally Demo"),
		tally.WithSeed(42, 7, 19, -3, 88),
		tally.WithAppendCallback(func(ev tally.AppendEvent) {
			slog.Info("numbers appended", "added", len(ev.Numbers), "total", ev.Total)
		}),
	)
	if err != nil {
		slog.Error("failed to create tally", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Tally Demo")
	fmt.Println()
	fmt.Println("  Dashboard: http://localhost:8080")
	fmt.Println("  API:       curl -d '{\"numbers\":[1,2,3]}' http://localhost:8080/numbers")
	fmt.Println("  A feeder appends random numbers every few seconds.")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runFeeder(ctx, fmt.Sprintf("http://localhost:%d", t.Port()))

	if err := t.Start(ctx); err != nil {
		slog.Error("tally error", "error", err)
		os.Exit(1)
	}
}
