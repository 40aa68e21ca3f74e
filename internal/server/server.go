// Package server exposes the market-data router over HTTP.
//
// # Endpoints
//
//	GET /healthz                         liveness and provider counts
//	GET /v1/providers                    every registered provider
//	GET /v1/providers/{category}         providers capable of category
//	GET /v1/{category}/{action}?k=v      route one request
//
// The routing endpoint reads two reserved query parameters, source (force
// a provider) and no_cache (bypass the result cache). Every other query
// parameter becomes a call argument.
//
// # Errors
//
// Failures are returned as JSON with the error code and an HTTP status
// derived from it:
//
//	INVALID_* and SOURCE_NOT_AVAILABLE   400
//	NO_PROVIDERS_AVAILABLE               503
//	ALL_PROVIDERS_FAILED                 502
//	anything else                        500
//
// Every response carries an X-Request-ID header.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/marketlink/pkg/router"
)

const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API for one router.
type Server struct {
	router  *router.Router
	logger  *log.Logger
	mux     chi.Router
	started time.Time
}

// New creates a Server. A nil logger falls back to log.Default().
func New(r *router.Router, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		router:  r,
		logger:  logger,
		started: time.Now(),
	}
	s.mux = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(requestLogger(s.logger))
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", s.handleHealth)
	mux.Route("/v1", func(r chi.Router) {
		r.Get("/providers", s.handleProviders)
		r.Get("/providers/{category}", s.handleProviders)
		r.Get("/{category}/{action}", s.handleQuery)
	})
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" is not allowed")
	})
	return mux
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
