package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidQuantile is returned when a requested quantile is outside [0, 1].
	ErrInvalidQuantile = errors.New("quantile must be between 0 and 1")

	// ErrWorkerPanic is returned when an aggregation worker panics.
	ErrWorkerPanic = errors.New("aggregation worker panicked")
)

// Direction selects the ordering of a sorted view.
type Direction string

const (
	// Ascending orders numbers from smallest to largest.
	Ascending Direction = "asc"

	// Descending orders numbers from largest to smallest.
	Descending Direction = "desc"
)

// ParseDirection converts a query value into a [Direction].
//
// Anything other than "desc" yields [Ascending].
func ParseDirection(s string) Direction {
	if Direction(s) == Descending {
		return Descending
	}
	return Ascending
}

// SearchResult is the outcome of looking up a single value.
type SearchResult struct {
	Value int32 `json:"value"`
	Found bool  `json:"found"`
}

// Statistics summarises the current contents of the store.
//
// Both fields are zero when the store is empty.
type Statistics struct {
	// Average is the arithmetic mean rounded half-to-even to 2 decimal places.
	Average float64 `json:"average"`

	// Median is the middle value (or mean of the two middle values), unrounded.
	Median float64 `json:"median"`
}

// ParallelResult is the outcome of a parallel aggregation over a snapshot.
type ParallelResult struct {
	Count   int     `json:"count"`
	Sum     int64   `json:"sum"`
	Average float64 `json:"average"`
}

// QuantileValue pairs a requested quantile with its approximate value.
type QuantileValue struct {
	Quantile float64 `json:"quantile"`
	Value    float64 `json:"value"`
}

// AppendEvent describes a batch of numbers added to the store.
type AppendEvent struct {
	// Numbers are the values added by this append, in order.
	Numbers []int32 `json:"numbers"`

	// Total is the store size after the append.
	Total int `json:"total"`

	// AppendedAt is when the batch was stored.
	AppendedAt time.Time `json:"appended_at"`
}

// Store defines the operations of the numeric collection.
//
// Implementations must be safe for concurrent access. Read operations work on
// a snapshot and never reorder the stored sequence.
type Store interface {
	// Append adds numbers to the end of the sequence, preserving their order,
	// and returns the number of stored values afterwards.
	Append(numbers []int32) int

	// GetAll returns a copy of the sequence in insertion order.
	GetAll() []int32

	// Len returns the number of stored values.
	Len() int

	// Sorted returns a sorted copy of the sequence.
	Sorted(dir Direction) []int32

	// Search reports whether value is present.
	Search(value int32) SearchResult

	// Statistics returns the average and median of the sequence.
	Statistics() Statistics

	// ProcessParallel sums the sequence using concurrent workers.
	ProcessParallel(ctx context.Context) (ParallelResult, error)

	// Quantiles returns approximate values for each quantile in qs.
	Quantiles(qs []float64) ([]QuantileValue, error)

	// Subscribe returns a channel that receives append events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan AppendEvent

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan AppendEvent)
}
