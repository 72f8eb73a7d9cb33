package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/goran-ethernal/TransferCrawler/pkg/control/docs"
)

// Ensure docs are initialized
var _ = docs.SwaggerInfo

const shutdownCtxTimeout = 10 * time.Second

// Server represents the control HTTP server.
type Server struct {
	config  *config.ControlConfig
	handler *Handler
	server  *http.Server
	log     *logger.Logger
}

// NewServer creates a new control server.
func NewServer(cfg *config.ControlConfig, handler *Handler, log *logger.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           NewRouter(handler, log),
		ReadHeaderTimeout: cfg.ReadTimeout.Duration,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
		log:     log,
	}
}

// NewRouter builds the routing table with middleware applied.
func NewRouter(handler *Handler, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("POST /api/me", handler.Identity)
	mux.HandleFunc("POST /api/reload_watched_addresses", handler.ReloadWatchedAddresses)
	mux.HandleFunc("POST /api/stop", handler.Stop)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	mux.HandleFunc("/", handler.NotFound)

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)

	return h
}

// Start binds the listen address and serves until ctx is cancelled.
// A bind failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.log.Infow("control server listening", "address", listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("control server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("shutting down control server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control server shutdown error: %w", err)
	}

	s.log.Info("control server stopped")
	return nil
}
