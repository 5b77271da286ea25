package tally

import (
	"bytes"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	tl, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl.Port() != 8080 {
		t.Errorf("Port() = %v, want %v", tl.Port(), 8080)
	}
	if tl.Parallelism() != runtime.NumCPU() {
		t.Errorf("Parallelism() = %v, want %v", tl.Parallelism(), runtime.NumCPU())
	}
	if tl.Len() != 0 {
		t.Errorf("Len() = %v, want 0", tl.Len())
	}
}

func TestWithPort(t *testing.T) {
	tl, err := New(WithPort(9090))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl.Port() != 9090 {
		t.Errorf("Port() = %v, want %v", tl.Port(), 9090)
	}
}

func TestWithPort_Invalid(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithPort(tt.port))
			if err == nil {
				t.Errorf("New() expected error for port %d, got nil", tt.port)
			}
		})
	}
}

func TestWithPort_ValidEdgeCases(t *testing.T) {
	for _, port := range []int{1, 65535} {
		tl, err := New(WithPort(port))
		if err != nil {
			t.Fatalf("New() error = %v for port %d", err, port)
		}
		if tl.Port() != port {
			t.Errorf("Port() = %v, want %v", tl.Port(), port)
		}
	}
}

func TestWithParallelism(t *testing.T) {
	tl, err := New(WithParallelism(3))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl.Parallelism() != 3 {
		t.Errorf("Parallelism() = %v, want %v", tl.Parallelism(), 3)
	}
}

func TestWithParallelism_ZeroMeansAuto(t *testing.T) {
	tl, err := New(WithParallelism(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl.Parallelism() != runtime.NumCPU() {
		t.Errorf("Parallelism() = %v, want %v", tl.Parallelism(), runtime.NumCPU())
	}
}

func TestWithParallelism_Invalid(t *testing.T) {
	_, err := New(WithParallelism(-1))
	if err == nil {
		t.Fatal("New() expected error for negative parallelism, got nil")
	}
	if !strings.Contains(err.Error(), "parallelism cannot be negative") {
		t.Errorf("New() error = %v, want error containing 'parallelism cannot be negative'", err)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tl, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl == nil {
		t.Fatal("New() returned nil Tally")
	}
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := New(WithLogger(nil))
	if err == nil {
		t.Error("New() expected error for nil logger, got nil")
	}
	if err != nil && !strings.Contains(err.Error(), "logger cannot be nil") {
		t.Errorf("New() error = %v, want error containing 'logger cannot be nil'", err)
	}
}

func TestWithTitle(t *testing.T) {
	tl, err := New(WithTitle("Scores"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl.title != "Scores" {
		t.Errorf("title = %q, want %q", tl.title, "Scores")
	}
}

func TestWithTitle_DefaultsToEmpty(t *testing.T) {
	tl, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// empty title falls back to the server default
	if tl.title != "" {
		t.Errorf("title = %q, want empty", tl.title)
	}
}

func TestWithSeed(t *testing.T) {
	tl, err := New(
		WithSeed(5, 3),
		WithSeed(8),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := tl.store.GetAll()
	want := []int32{5, 3, 8}
	if len(got) != len(want) {
		t.Fatalf("GetAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetAll()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWithSeed_Empty(t *testing.T) {
	tl, err := New(WithSeed())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if tl.Len() != 0 {
		t.Errorf("Len() = %v, want 0", tl.Len())
	}
}
