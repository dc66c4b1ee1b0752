package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/logging"
	"github.com/openvcu/someip/internal/someip/sd"
)

// shutdownTimeout bounds how long Shutdown waits for in-flight
// requests and websocket clients.
const shutdownTimeout = 10 * time.Second

// Snapshotter provides the current state of all tracked services. The
// discovery manager satisfies this.
type Snapshotter interface {
	Snapshot() []sd.ServiceStatus
}

// Config holds the monitoring server configuration.
type Config struct {
	Host string
	Port int

	// MetricsHandler serves GET /metrics when set (the daemon passes
	// promhttp wired to its registry). Nil disables the route.
	MetricsHandler http.Handler
}

// Server exposes discovery state over HTTP: a JSON snapshot, a
// websocket stream of transition events, and Prometheus metrics.
type Server struct {
	config   *Config
	snapshot Snapshotter
	hub      *Hub
	httpSrv  *http.Server
}

// New creates a monitoring server over the given snapshot source.
func New(config *Config, snapshot Snapshotter) *Server {
	s := &Server{
		config:   config,
		snapshot: snapshot,
		hub:      NewHub(),
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Broadcast publishes one transition event to all websocket clients.
// Wire this as the discovery manager's transition sink.
func (s *Server) Broadcast(tr sd.Transition) {
	s.hub.Broadcast(newTransitionEvent(tr))
}

// Start begins serving and blocks until a shutdown signal arrives or
// the listener fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpSrv.Addr, err)
	}

	logging.Info("Monitoring server listening",
		zap.String("addr", s.httpSrv.Addr),
	)

	go s.hub.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpSrv.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the server, closing websocket clients first so their
// read loops unblock.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.hub.Close()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.httpSrv.Close()
	}

	logging.Info("Monitoring server stopped")
	return nil
}
