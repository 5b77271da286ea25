package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/tally/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// maxRequestBodySize caps the JSON body accepted by POST /numbers.
	maxRequestBodySize = 1 << 20 // 1MB

	// requestIDHeader carries the correlation id of each request.
	requestIDHeader = "X-Request-ID"

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Tally"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// AppendRequest is the body accepted by POST /numbers.
type AppendRequest struct {
	Numbers []int32 `json:"numbers"`
}

// AppendResponse is returned by POST /numbers.
type AppendResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// Server handles HTTP requests for the tally API.
//
// Server maps each store operation to one endpoint:
//   - POST /numbers: append numbers
//   - GET /numbers: all numbers in insertion order
//   - GET /numbers/sorted: sorted copy (?sort=asc|desc)
//   - GET /numbers/search: membership test (?value=N)
//   - GET /numbers/stats: average and median
//   - POST /numbers/process/parallel: parallel sum and average
//   - GET /numbers/quantiles: approximate quantiles (?q=0.5,0.9)
//   - GET /numbers/events: Server-Sent Events stream of appends
//   - GET /: embedded dashboard
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
	stopped    chan struct{}
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store implementation holding the numbers
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard title (defaults to "Tally" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	return &Server{
		store:   st,
		port:    port,
		assets:  assets,
		title:   title,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Handler returns the routed handler wrapped in request-id middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/numbers", s.handleNumbers)
	mux.HandleFunc("/numbers/sorted", s.handleSorted)
	mux.HandleFunc("/numbers/search", s.handleSearch)
	mux.HandleFunc("/numbers/stats", s.handleStats)
	mux.HandleFunc("/numbers/process/parallel", s.handleParallel)
	mux.HandleFunc("/numbers/quantiles", s.handleQuantiles)
	mux.HandleFunc("/numbers/events", s.handleSSE)

	// serve dashboard assets
	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}

	return s.withRequestID(mux)
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		defer close(s.stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Stopped returns a channel that is closed once a started server has
// finished shutting down and released its port.
func (s *Server) Stopped() <-chan struct{} {
	return s.stopped
}

// withRequestID tags every request with an id, echoes it in the response and
// logs the request at debug level once it completes.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug("request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// read index.html from embedded assets
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	safeTitle := html.EscapeString(title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleNumbers dispatches GET (list) and POST (append) on /numbers.
func (s *Server) handleNumbers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, s.store.GetAll())
	case http.MethodPost:
		s.handleAppend(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAppend validates the request body and appends its numbers.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req AppendRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		// covers fractions, strings and values outside the int32 range
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			http.Error(w, fmt.Sprintf("Numbers must be integers between %d and %d.", math.MinInt32, math.MaxInt32), http.StatusBadRequest)
			return
		}
		http.Error(w, "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(req.Numbers) == 0 {
		http.Error(w, "Numbers array cannot be empty.", http.StatusBadRequest)
		return
	}

	total := s.store.Append(req.Numbers)

	s.logger.Info("numbers appended", "added", len(req.Numbers), "total", total)

	s.writeJSON(w, AppendResponse{Added: len(req.Numbers), Total: total})
}

// handleSorted returns the numbers sorted by the "sort" query parameter.
//
// A missing parameter means ascending; any value other than "asc" or "desc"
// is rejected here even though the store itself would fall back to ascending.
func (s *Server) handleSorted(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	order := r.URL.Query().Get("sort")
	if order == "" {
		order = string(store.Ascending)
	}
	if order != string(store.Ascending) && order != string(store.Descending) {
		http.Error(w, "Sort parameter must be 'asc' or 'desc'.", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, s.store.Sorted(store.Direction(order)))
}

// handleSearch reports whether the "value" query parameter is stored.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("value")
	if raw == "" {
		http.Error(w, "Value parameter is required.", http.StatusBadRequest)
		return
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		http.Error(w, fmt.Sprintf("Value parameter must be a 32-bit integer, got %q.", raw), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, s.store.Search(int32(value)))
}

// handleStats returns the average and median.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	s.writeJSON(w, s.store.Statistics())
}

// handleParallel runs the parallel aggregation.
//
// The aggregation is bound to the request context, so a client disconnect or
// server shutdown abandons it.
func (s *Server) handleParallel(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	result, err := s.store.ProcessParallel(r.Context())
	if err != nil {
		s.logger.Error("parallel aggregation failed",
			"request_id", w.Header().Get(requestIDHeader),
			"error", err,
		)
		http.Error(w, "Parallel processing failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, result)
}

// handleQuantiles returns approximate quantiles.
// The "q" parameter is a comma separated list; it defaults to 0.5,0.9,0.99.
func (s *Server) handleQuantiles(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	qs := store.DefaultQuantiles
	if raw := r.URL.Query().Get("q"); raw != "" {
		parsed, err := parseQuantiles(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		qs = parsed
	}

	values, err := s.store.Quantiles(qs)
	if err != nil {
		if errors.Is(err, store.ErrInvalidQuantile) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("quantile computation failed", "error", err)
		http.Error(w, "Quantile computation failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, values)
}

// parseQuantiles parses a comma separated list of floats.
func parseQuantiles(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	qs := make([]float64, 0, len(parts))
	for _, p := range parts {
		q, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantile %q", p)
		}
		qs = append(qs, q)
	}
	return qs, nil
}

// handleSSE streams append events via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// ResponseController provides deadline-aware write and flush operations.
	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		// ResponseController.Flush respects the write deadline
		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe to store updates
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	// send headers right away so clients see the stream open
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}

// writeJSON encodes v as the JSON response body.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// allowMethod writes a 405 and returns false unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}
