// Package server assembles the HTTP surface: authenticated management routes
// under /v1 and the anonymous public share routes at the root.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"startup-dataroom/backend/internal/platform/httpx"
	"startup-dataroom/backend/internal/security"
	"startup-dataroom/backend/internal/server/middleware"
)

// ManagementRoutes mounts token-protected routes under /v1. Features implement
// the management side, the public side, or both.
type ManagementRoutes interface {
	RegisterManagement(r chi.Router)
}

// PublicRoutes mounts anonymous routes reachable without a Bearer token.
type PublicRoutes interface {
	RegisterPublic(r chi.Router)
}

// Features are the handlers mounted on the router.
type Features struct {
	Management []ManagementRoutes
	Public     []PublicRoutes
}

// NewRouter builds the chi router: request id, real ip, panic recovery, then
// public routes at the root and token-protected management routes under /v1.
func NewRouter(tokens *security.TokenProvider, features Features) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, f := range features.Public {
		f.RegisterPublic(r)
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.RequireAuth(tokens))
		for _, f := range features.Management {
			f.RegisterManagement(v1)
		}
	})

	return r
}

// shutdownTimeout bounds graceful drain on stop.
const shutdownTimeout = 10 * time.Second

// Server wraps http.Server with graceful shutdown.
type Server struct {
	http *http.Server
}

// New returns a server listening on addr with the given handler.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. It returns nil on clean shutdown.
func (s *Server) Start() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, bounded by shutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
