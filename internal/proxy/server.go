// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jeranaias/parley/internal/completion"
	"github.com/jeranaias/parley/internal/logging"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize is the largest accepted request body.
	// SECURITY: Body limit prevents memory exhaustion from oversized prompts.
	MaxRequestBodySize = 1 << 20 // 1MB

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// ============================================================================
// STATS
// ============================================================================

// Stats tracks request counts for the health endpoint.
type Stats struct {
	startTime time.Time
	requests  atomic.Int64
	failures  atomic.Int64
	rejected  atomic.Int64
}

func newStats() *Stats {
	return &Stats{startTime: time.Now()}
}

// Uptime returns the time since the server was created.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:8787".
	Addr string

	// Upstream completes forwarded prompts. It carries the real credential.
	Upstream completion.Completer

	// ClientToken, when non-empty, must be presented in X-API-Key.
	ClientToken string

	// AllowedOrigins is the CORS allow-list.
	AllowedOrigins []string

	// RatePerMinute caps requests per client IP. 0 disables the limit.
	RatePerMinute int

	// Logger receives request logs. Nil discards them.
	Logger *slog.Logger
}

// Server forwards completion requests to an upstream endpoint.
type Server struct {
	opts   Options
	logger *slog.Logger
	stats  *Stats
	router chi.Router
	server *http.Server
}

// New creates a Server and wires its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		opts:   opts,
		logger: logger,
		stats:  newStats(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stats returns the live request counters.
func (s *Server) Stats() *Stats {
	return s.stats
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(RecoveryMiddleware(s.logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(CORSMiddleware(NewCORSConfig(s.opts.AllowedOrigins)))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.opts.RatePerMinute > 0 {
			r.Use(RateLimitMiddleware(NewRateLimiter(s.opts.RatePerMinute, time.Minute)))
		}
		if s.opts.ClientToken != "" {
			r.Use(AuthMiddleware(s.opts.ClientToken, s.logger))
		}
		r.Post("/v1/complete", s.handleComplete)
	})

	return r
}

// ============================================================================
// COMPLETE HANDLER
// ============================================================================

// completeResponse is the success body. It matches the upstream wire format.
type completeResponse struct {
	Completion string `json:"completion"`
}

// handleComplete handles POST /v1/complete.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.stats.requests.Add(1)

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req completion.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.stats.rejected.Add(1)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		s.logger.Debug("invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		s.stats.rejected.Add(1)
		writeError(w, http.StatusBadRequest, "prompt must not be empty")
		return
	}

	res := s.opts.Upstream.Complete(r.Context(), req.Prompt)
	if !res.OK() {
		s.stats.failures.Add(1)
		s.logger.Warn("upstream completion failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"kind", res.Kind().String(),
			"reason", res.Reason(),
		)
		writeError(w, http.StatusBadGateway, res.Reason())
		return
	}

	writeJSON(w, http.StatusOK, completeResponse{Completion: res.Text()})
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	Upstream      string `json:"upstream"`
	Requests      int64  `json:"requests"`
	Failures      int64  `json:"failures"`
	Rejected      int64  `json:"rejected"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:        "ok",
		Upstream:      "unknown",
		Requests:      s.stats.requests.Load(),
		Failures:      s.stats.failures.Load(),
		Rejected:      s.stats.rejected.Load(),
		UptimeSeconds: int64(s.stats.Uptime().Seconds()),
	}

	if b, ok := s.opts.Upstream.(*completion.BreakerCompleter); ok {
		health.Upstream = b.State().String()
		if health.Upstream != "closed" {
			health.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Upstream completions can be slow; no WriteTimeout.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("proxy listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("proxy shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
