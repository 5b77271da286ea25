// Package server provides the HTTP API for tally.
//
// This package is internal to tally and handles all HTTP concerns:
//
//   - REST API: JSON endpoints under "/numbers" for every store operation
//   - Input validation: empty batches, bad sort orders and non-integer
//     search values are rejected with 400 before reaching the store
//   - Server-Sent Events: a live stream of appends at "/numbers/events"
//   - Dashboard serving: the embedded HTML page at "/"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the tally library should not need to interact with this
// package directly. The server is started automatically by [tally.Tally.Start].
package server
