// Package http exposes the JSON API over the data access facade.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tempo/internal/cache"
	"tempo/internal/db"
)

type Server struct {
	http.Server

	data       *db.DB
	hourlyRate float64

	rateLimiter *rateLimiter

	// Report summaries are cheap to cache and expensive to recompute
	// against the remote backend.
	summaryCache *cache.LRUCache[SummaryReport]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. hourlyRate is the default applied when a report request
// does not carry its own rate.
func NewServer(addr string, data *db.DB, hourlyRate float64, summaryTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		data:         data,
		hourlyRate:   hourlyRate,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[SummaryReport](100, summaryTTL),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/customers", s.withMiddleware(s.handleListCustomers))
	mux.HandleFunc("POST /api/customers", s.withMiddleware(s.handleCreateCustomer))
	mux.HandleFunc("GET /api/customers/{id}", s.withMiddleware(s.handleGetCustomer))
	mux.HandleFunc("GET /api/customers/{id}/projects", s.withMiddleware(s.handleListCustomerProjects))

	mux.HandleFunc("GET /api/projects", s.withMiddleware(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.withMiddleware(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.withMiddleware(s.handleGetProject))

	mux.HandleFunc("GET /api/time-entries", s.withMiddleware(s.handleListTimeEntries))
	mux.HandleFunc("POST /api/time-entries", s.withMiddleware(s.handleCreateTimeEntry))
	mux.HandleFunc("PATCH /api/time-entries/{id}", s.withMiddleware(s.handleUpdateTimeEntry))
	mux.HandleFunc("DELETE /api/time-entries/{id}", s.withMiddleware(s.handleDeleteTimeEntry))

	mux.HandleFunc("POST /api/timer/stop", s.withMiddleware(s.handleStopTimer))

	mux.HandleFunc("GET /api/reports/summary", s.withMiddleware(s.handleSummaryReport))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Mutating requests are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
