package store

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps the sequence in insertion order behind a read-write lock.
// Reads copy the sequence under the read lock and do their work on the copy,
// so sorting, searching and aggregation never observe a half-applied append.
//
// Subscribers receive an [AppendEvent] for every non-empty append via buffered
// channels. Sends are non-blocking; a subscriber with a full buffer misses
// the event rather than stalling writers.
type MemoryStore struct {
	mu          sync.RWMutex
	numbers     []int32
	subscribers map[chan AppendEvent]struct{}
	subMu       sync.RWMutex

	parallelism int
	logger      *slog.Logger
}

// NewMemoryStore creates an empty [MemoryStore].
//
// parallelism sizes the chunks of [MemoryStore.ProcessParallel]; values below
// 1 select the number of logical CPUs. A nil logger falls back to
// [slog.Default].
func NewMemoryStore(parallelism int, logger *slog.Logger) *MemoryStore {
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		numbers:     []int32{},
		subscribers: make(map[chan AppendEvent]struct{}),
		parallelism: parallelism,
		logger:      logger,
	}
}

// Parallelism returns the worker hint used by [MemoryStore.ProcessParallel].
func (m *MemoryStore) Parallelism() int {
	return m.parallelism
}

// Append adds numbers to the end of the sequence, notifies subscribers and
// returns the store size after the append.
//
// An empty batch is a no-op and publishes nothing.
func (m *MemoryStore) Append(numbers []int32) int {
	if len(numbers) == 0 {
		return m.Len()
	}

	m.mu.Lock()
	m.numbers = append(m.numbers, numbers...)
	total := len(m.numbers)
	m.mu.Unlock()

	m.notifySubscribers(AppendEvent{
		Numbers:    append([]int32(nil), numbers...),
		Total:      total,
		AppendedAt: time.Now(),
	})
	return total
}

// GetAll returns the sequence in insertion order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) GetAll() []int32 {
	return m.snapshot()
}

// Len returns the number of stored values.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.numbers)
}

// Sorted returns the sequence sorted in the given direction.
// Any direction other than [Descending] sorts ascending.
func (m *MemoryStore) Sorted(dir Direction) []int32 {
	return QuickSort(m.snapshot(), ParseDirection(string(dir)))
}

// Search reports whether value is currently stored.
//
// The lookup sorts a copy of the sequence and binary searches it, so each
// call costs O(n log n); no sorted index is maintained between calls.
func (m *MemoryStore) Search(value int32) SearchResult {
	return SearchResult{
		Value: value,
		Found: BinarySearch(QuickSort(m.snapshot(), Ascending), value),
	}
}

// Statistics returns the rounded average and the median of the sequence.
func (m *MemoryStore) Statistics() Statistics {
	return ComputeStatistics(m.snapshot())
}

// ProcessParallel sums a snapshot of the sequence with concurrent workers.
// See [SumParallel] for the partitioning rules.
func (m *MemoryStore) ProcessParallel(ctx context.Context) (ParallelResult, error) {
	return SumParallel(ctx, m.snapshot(), m.parallelism, m.logger)
}

// Quantiles returns approximate values at each of qs over a snapshot.
func (m *MemoryStore) Quantiles(qs []float64) ([]QuantileValue, error) {
	return ComputeQuantiles(m.snapshot(), qs)
}

// Subscribe creates a new subscription and returns a channel for receiving
// append events.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan AppendEvent {
	ch := make(chan AppendEvent, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan AppendEvent) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	// map keys are bidirectional channels, compare to find the match
	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// snapshot copies the sequence under the read lock.
func (m *MemoryStore) snapshot() []int32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp := make([]int32, len(m.numbers))
	copy(cp, m.numbers)
	return cp
}

// notifySubscribers sends the event to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(event AppendEvent) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- event:
		default:
			// subscriber is slow, drop the event
		}
	}
}
