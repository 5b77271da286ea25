// Package client provides an HTTP client for a running Tally server.
//
// The tally CLI uses it for its add, list, sorted, search, stats, process
// and quantiles commands. Non-2xx responses are returned as [*APIError].
package client
