// Package http exposes the assistant over a small JSON API and serves the
// keep-alive and health endpoints.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"daftar/internal/assistant"
	"daftar/internal/ledger"
	"daftar/internal/log"
	"daftar/internal/middleware/ratelimit"
	"daftar/internal/middleware/security"
)

// MessageHandler is satisfied by *assistant.Engine.
type MessageHandler interface {
	Handle(ctx context.Context, in assistant.Inbound) (assistant.Outbound, error)
}

type Server struct {
	http.Server
	messages MessageHandler
	ledger   ledger.Querier
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(ctx context.Context) error
	location *time.Location
	currency string
	logger   *log.Logger
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimiter limits /api requests per client IP.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithLocation sets the zone used to read dates in query parameters.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.location = loc }
}

func WithCurrency(code string) Option {
	return func(s *Server) { s.currency = code }
}

func NewServer(addr string, messages MessageHandler, q ledger.Querier, opts ...Option) *Server {
	s := &Server{
		messages: messages,
		ledger:   q,
		detector: security.NewDetector(),
		location: time.UTC,
		currency: "SAR",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger, func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}, ratelimit.ClientIP))
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/", handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(ratelimit.ClientIP))
		}
		r.Post("/messages", s.handleMessage)
		r.Get("/summary", s.handleSummary)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}
