// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/okian/gauntlet/internal/domain/types"
	"github.com/okian/gauntlet/internal/domain/validation"
	"github.com/okian/gauntlet/pkg/logger"
	"github.com/okian/gauntlet/pkg/metrics"
)

const (
	defaultMaxBodyBytes int64 = 64 << 10
	leaderboardPath           = "/api/leaderboard"
)

// Dependencies required by HTTP handlers. Data methods return an error
// matching readiness.ErrNotReady when storage cannot serve; that maps to 503.
type Dependencies interface {
	// IsReady reports whether storage is initialized and usable.
	IsReady() bool

	TopN(ctx context.Context) ([]Entry, error)
	Submit(ctx context.Context, s validation.Submission) (int64, error)
	Reset(ctx context.Context) (int64, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	leaderboardHandler *LeaderboardHandler

	fallback    http.Handler
	extraRoutes []func(chi.Router)
	corsOrigins []string
	logger      logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps the size of POST bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.leaderboardHandler.maxBody = n
		}
	}
}

// WithCORSOrigins enables CORS for the given origins. An empty list leaves
// CORS disabled.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithFallback serves unmatched GET and HEAD requests.
func WithFallback(h http.Handler) Option {
	return func(s *Server) {
		s.fallback = h
	}
}

// WithRoutes registers additional routes, such as the API docs.
func WithRoutes(register func(chi.Router)) Option {
	return func(s *Server) {
		if register != nil {
			s.extraRoutes = append(s.extraRoutes, register)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, defaultMaxBodyBytes),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("http")
	}
	s.leaderboardHandler.logger = s.logger
	return s
}

// Router builds the chi router serving every route.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Recoverer(s.logger))
	r.Use(RequestLogger(s.logger))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
		}).Handler)
	}
	// HEAD on a GET route is answered by that route, not the site fallback.
	r.Use(chimw.GetHead)

	r.Get("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	r.Get(leaderboardPath, MetricsMiddleware(s.leaderboardHandler.HandleList, "leaderboard"))
	r.Post(leaderboardPath, MetricsMiddleware(s.leaderboardHandler.HandleSubmit, "leaderboard"))
	r.Delete(leaderboardPath, MetricsMiddleware(s.leaderboardHandler.HandleReset, "leaderboard"))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	for _, register := range s.extraRoutes {
		register(r)
	}

	r.NotFound(s.handleUnmatched)
	r.MethodNotAllowed(s.handleUnmatched)
	return r
}

func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	if s.fallback != nil && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
		s.fallback.ServeHTTP(w, r)
		return
	}
	writeError(w, http.StatusNotFound, MsgNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
