package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/invoice-admin/internal/config"
	"github.com/ignite/invoice-admin/internal/pkg/logger"
)

// Server represents the API server
type Server struct {
	server *http.Server
}

// NewServer creates a new API server serving handler with the configured
// address and timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
		},
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
