// Package store provides the in-memory numeric collection behind tally.
//
// This package is internal to tally and owns the sequence of integers
// appended by clients. It implements every query the HTTP API exposes:
//
//   - [MemoryStore]: the [Store] implementation with pub/sub for appends
//   - [QuickSort]: recursive three-way partition sort over copies
//   - [BinarySearch]: closed-interval search over an ascending slice
//   - [ComputeStatistics]: rounded average and median
//   - [SumParallel]: chunked concurrent sum with fail-fast error handling
//
// Every read takes a snapshot of the sequence under a read lock and computes
// on the copy, so concurrent appends never alter a running computation and
// the stored insertion order is never mutated.
//
// Users of the tally library should not need to interact with this
// package directly. The store is owned by [tally.Tally].
package store
