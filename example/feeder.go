package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jpalmerr/tally/internal/client"
)

// runFeeder appends a small random batch to the server every 2-5 seconds
// until ctx is cancelled, so the dashboard has something to show.
func runFeeder(ctx context.Context, addr string) {
	c, err := client.New(addr, 5*time.Second)
	if err != nil {
		slog.Error("feeder disabled", "error", err)
		return
	}
	defer c.Close()

	for {
		wait := time.Duration(2+rand.Intn(4)) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		batch := make([]int32, 1+rand.Intn(5))
		for i := range batch {
			batch[i] = int32(rand.Intn(201) - 100)
		}

		if _, err := c.Append(ctx, batch); err != nil && ctx.Err() == nil {
			slog.Warn("feeder append failed", "error", err)
		}
	}
}
