// Package httpapi serves the account operations as a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	version  string
	users    UserService
	gatherer prometheus.Gatherer
	logger   logging.Logger
}

// NewServer builds the HTTP API. A nil gatherer disables /metrics.
func NewServer(address, version string, l logging.Logger, users UserService, gatherer prometheus.Gatherer) *Server {
	return &Server{
		address:  address,
		version:  version,
		users:    users,
		gatherer: gatherer,
		logger:   logging.OrNop(l).With("module", "http_server"),
	}
}

// Handler returns the routed handler wrapped in CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/token", s.login)
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("GET /auth/me", s.me)
	mux.HandleFunc("GET /auth/validate", s.validate)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /{$}", s.root)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then shuts down,
// waiting up to five seconds for in-flight requests.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          s.errorLog(),
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}

// errorLog routes net/http's internal errors (TLS handshakes, panics in
// handlers) into the slog pipeline. Other loggers keep the stdlib default.
func (s *Server) errorLog() *log.Logger {
	sl, ok := s.logger.(interface{ Slog() *slog.Logger })
	if !ok {
		return nil
	}
	return slog.NewLogLogger(sl.Slog().Handler(), slog.LevelError)
}
