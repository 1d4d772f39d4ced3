// Package http exposes the analyzer over a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stocklens/analyzer"
	"stocklens/monitoring"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           8080,
		Timeout:        120 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Server is the HTTP front of the analyzer.
type Server struct {
	server *http.Server
	log    *zap.SugaredLogger
}

// NewServer wires the handlers and middleware chain.
func NewServer(cfg ServerConfig, core *analyzer.Analyzer, hub *monitoring.Hub, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	mux := http.NewServeMux()
	registerHandlers(mux, &handlerDeps{core: core, hub: hub, log: log})

	chain := Chain(
		RecoveryMiddleware(log),
		LoggerMiddleware(log),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      chain(mux),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		log: log,
	}
}

// Start blocks serving requests until Stop or a listen error.
func (s *Server) Start() error {
	s.log.Infow("starting http server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
