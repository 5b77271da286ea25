package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/tally/internal/server"
	"github.com/jpalmerr/tally/internal/store"
)

// newTestClient starts a real API handler and returns a client for it.
func newTestClient(t *testing.T, numbers ...int32) (*Client, *store.MemoryStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemoryStore(2, logger)
	st.Append(numbers)

	ts := httptest.NewServer(server.NewServer(st, 0, nil, "", logger).Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c, st
}

func TestNew_InvalidAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"no scheme", "localhost:8080"},
		{"ftp scheme", "ftp://localhost"},
		{"no host", "http://"},
		{"unparseable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.addr, 0); err == nil {
				t.Errorf("New(%q) expected error, got nil", tt.addr)
			}
		})
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	c, err := New("http://localhost:8080", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, defaultTimeout)
	}
}

func TestClient_AppendAndList(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	got, err := c.Append(ctx, []int32{3, 1, 2})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got.Added != 3 || got.Total != 3 {
		t.Errorf("Append() = %+v, want {Added:3 Total:3}", got)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []int32{3, 1, 2}
	if len(list) != len(want) {
		t.Fatalf("List() = %v, want %v", list, want)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("List()[%d] = %d, want %d", i, list[i], want[i])
		}
	}
}

func TestClient_AppendEmptyReturnsAPIError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Append(context.Background(), []int32{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Append() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusBadRequest)
	}
	if !strings.Contains(apiErr.Message, "cannot be empty") {
		t.Errorf("Message = %q, want mention of empty input", apiErr.Message)
	}
	if apiErr.RequestID == "" {
		t.Error("RequestID should be populated from the response header")
	}
}

func TestClient_Sorted(t *testing.T) {
	c, _ := newTestClient(t, 5, 1, 4)

	tests := []struct {
		dir  string
		want []int32
	}{
		{"", []int32{1, 4, 5}},
		{"asc", []int32{1, 4, 5}},
		{"desc", []int32{5, 4, 1}},
	}

	for _, tt := range tests {
		t.Run("dir="+tt.dir, func(t *testing.T) {
			got, err := c.Sorted(context.Background(), tt.dir)
			if err != nil {
				t.Fatalf("Sorted() error = %v", err)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Sorted(%q) = %v, want %v", tt.dir, got, tt.want)
					break
				}
			}
		})
	}
}

func TestClient_SortedInvalidDirection(t *testing.T) {
	c, _ := newTestClient(t, 1)

	_, err := c.Sorted(context.Background(), "sideways")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Sorted() error = %v, want 400 APIError", err)
	}
}

func TestClient_Search(t *testing.T) {
	c, _ := newTestClient(t, 7, -2, 9)
	ctx := context.Background()

	found, err := c.Search(ctx, -2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !found.Found || found.Value != -2 {
		t.Errorf("Search(-2) = %+v, want found", found)
	}

	missing, err := c.Search(ctx, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if missing.Found {
		t.Errorf("Search(3) = %+v, want not found", missing)
	}
}

func TestClient_Stats(t *testing.T) {
	c, _ := newTestClient(t, 1, 2, 3, 4)

	got, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if got.Average != 2.5 || got.Median != 2.5 {
		t.Errorf("Stats() = %+v, want {Average:2.5 Median:2.5}", got)
	}
}

func TestClient_ProcessParallel(t *testing.T) {
	c, _ := newTestClient(t, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	got, err := c.ProcessParallel(context.Background())
	if err != nil {
		t.Fatalf("ProcessParallel() error = %v", err)
	}
	if got.Count != 10 || got.Sum != 55 || got.Average != 5.5 {
		t.Errorf("ProcessParallel() = %+v, want {Count:10 Sum:55 Average:5.5}", got)
	}
}

func TestClient_Quantiles(t *testing.T) {
	numbers := make([]int32, 100)
	for i := range numbers {
		numbers[i] = int32(i + 1)
	}
	c, _ := newTestClient(t, numbers...)

	got, err := c.Quantiles(context.Background(), []float64{0.5})
	if err != nil {
		t.Fatalf("Quantiles() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(Quantiles()) = %d, want 1", len(got))
	}
	if math.Abs(got[0].Value-50) > 2 {
		t.Errorf("Quantiles(0.5) = %v, want about 50", got[0].Value)
	}

	defaults, err := c.Quantiles(context.Background(), nil)
	if err != nil {
		t.Fatalf("Quantiles(nil) error = %v", err)
	}
	if len(defaults) != len(store.DefaultQuantiles) {
		t.Errorf("len(Quantiles(nil)) = %d, want %d", len(defaults), len(store.DefaultQuantiles))
	}
}

func TestClient_ServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, err := New(addr, time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.List(context.Background()); err == nil {
		t.Error("List() expected error for closed server, got nil")
	}
}

func TestClient_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c, err := New(ts.URL, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	start := time.Now()
	if _, err := c.List(context.Background()); err == nil {
		t.Error("List() expected timeout error, got nil")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("List() took %v, want timeout near 50ms", elapsed)
	}
}

func TestClient_OversizedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("["))
		_, _ = w.Write([]byte(strings.Repeat("1,", maxResponseBodySize/2)))
		_, _ = w.Write([]byte("1]"))
	}))
	defer ts.Close()

	c, err := New(ts.URL, time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.List(context.Background())
	if err == nil || !strings.Contains(err.Error(), "1MB") {
		t.Errorf("List() error = %v, want size limit error", err)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	c, err := New(ts.URL, time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Stats(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to decode") {
		t.Errorf("Stats() error = %v, want decode error", err)
	}
}

// TestClient_ConnectionReuse verifies sequential calls share a connection.
func TestClient_ConnectionReuse(t *testing.T) {
	c, _ := newTestClient(t, 1)

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5
	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		if _, err := c.List(ctx); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var c *Client

	// should not panic on nil receiver
	c.Close()
}

func TestAPIError_Error(t *testing.T) {
	withID := &APIError{StatusCode: 400, Message: "bad", RequestID: "abc"}
	if got := withID.Error(); got != "server returned 400: bad (request_id: abc)" {
		t.Errorf("Error() = %q", got)
	}

	withoutID := &APIError{StatusCode: 500, Message: "boom"}
	if got := withoutID.Error(); got != "server returned 500: boom" {
		t.Errorf("Error() = %q", got)
	}
}
