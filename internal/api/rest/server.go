package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/originwatch/originwatch/internal/config"
	"github.com/originwatch/originwatch/internal/service/orchestrator"
	"github.com/originwatch/originwatch/internal/service/vpnguard"
)

// ServerConfig holds the HTTP listener's own parameters, separate from
// RouterConfig's cross-cutting middleware selection.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Router          RouterConfig
}

// Server wraps the standard library HTTP server around the router
// this package builds.
type Server struct {
	httpServer      *http.Server
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

// NewServer builds a Server ready to Start.
func NewServer(cfg ServerConfig, logger *zap.Logger, o *orchestrator.Orchestrator, aggregator *vpnguard.Aggregator, registry *config.Registry) (*Server, error) {
	handler, err := NewRouter(cfg.Router, logger, o, aggregator, registry)
	if err != nil {
		return nil, fmt.Errorf("building router: %w", err)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http transport listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http transport")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
