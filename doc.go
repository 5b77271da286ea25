// Package tally provides an embeddable in-memory number collection service
// with an HTTP API.
//
// Clients append integers and then read them back in insertion or sorted
// order, search for a value, compute the average and median, request
// approximate quantiles, or trigger a parallel sum across all CPU cores.
//
// # Quick Start
//
//	t, _ := tally.New(tally.WithPort(8080))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	t.Start(ctx) // blocks until context is cancelled
//
// # HTTP API
//
//	POST /numbers                    {"numbers":[3,1,2]}
//	GET  /numbers                    [3,1,2]
//	GET  /numbers/sorted?sort=desc   [3,2,1]
//	GET  /numbers/search?value=2     {"value":2,"found":true}
//	GET  /numbers/stats              {"average":2,"median":2}
//	POST /numbers/process/parallel   {"count":3,"sum":6,"average":2}
//	GET  /numbers/quantiles?q=0.5    [{"quantile":0.5,"value":2}]
//	GET  /numbers/events             Server-Sent Events, one per append
//
// The average is rounded half-to-even to two decimal places. Sorting uses a
// recursive three-way partition quicksort over copies, so the stored order
// never changes.
//
// # Architecture
//
// Tally consists of several internal packages (under internal/):
//
//   - internal/store: the in-memory sequence and its algorithms
//   - internal/server: HTTP API with Server-Sent Events
//   - internal/client: HTTP client used by the CLI
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. Nothing is persisted; the numbers live as long as the
// process.
package tally
