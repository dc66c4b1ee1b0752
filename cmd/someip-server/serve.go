package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/config"
	"github.com/openvcu/someip/internal/logging"
	"github.com/openvcu/someip/internal/metrics"
	"github.com/openvcu/someip/internal/server"
	"github.com/openvcu/someip/internal/someip/sd"
	"github.com/openvcu/someip/internal/transport"
)

var (
	configPath string
	logLevel   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the service discovery daemon",
	Long: `Start the daemon: join the SD multicast group, subscribe to the
service instances named in the configuration file, and track their
availability.

When the monitoring server is enabled in the configuration, discovery
state is served on /api/services, transition events on /ws, and
Prometheus metrics on /metrics.`,
	Example: `  # Start with a configuration file
  someip-server serve --config /etc/someip/config.yaml

  # Start with debug logging regardless of the configured level
  someip-server serve --config config.yaml --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := logging.Initialize(level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	if len(cfg.Services) == 0 {
		logging.Warn("No services configured; the daemon will track nothing")
	}

	policy, err := sd.ParseTTLZeroPolicy(cfg.SD.TTLZeroPolicy)
	if err != nil {
		return err
	}

	// The monitoring server receives the manager's transition events
	// but also snapshots the manager; the indirection breaks the
	// construction cycle. The pointer is written before the endpoint
	// starts, so the sink closure never races it.
	var monitorSrv *server.Server

	var recorder metrics.Recorder = metrics.Noop{}
	registry := prometheus.NewRegistry()
	if cfg.Monitor.Enabled {
		registry.MustRegister(collectors.NewGoCollector())
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	manager := sd.NewManager(sd.ManagerConfig{
		TTLZeroPolicy: policy,
		Recorder:      recorder,
		OnTransition: func(tr sd.Transition) {
			if monitorSrv != nil {
				monitorSrv.Broadcast(tr)
			}
		},
	})
	defer manager.Close()

	for _, svc := range cfg.Services {
		manager.Subscribe(svc.ServiceID, svc.InstanceID)
	}

	if cfg.Monitor.Enabled {
		monitorSrv = server.New(&server.Config{
			Host: cfg.Monitor.Host,
			Port: cfg.Monitor.Port,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{
				Timeout: 10 * time.Second,
			}),
		}, manager)
	}

	endpoint, err := transport.NewEndpoint(transport.EndpointConfig{
		MulticastGroup: cfg.SD.MulticastGroup,
		Port:           cfg.SD.Port,
		Interface:      cfg.SD.Interface,
		ClientID:       cfg.ClientID,
	}, manager)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := endpoint.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = endpoint.Close() }()

	if cfg.SD.SendFind {
		if err := endpoint.SendFind(manager.Keys()); err != nil {
			logging.Warn("Failed to send initial find", zap.Error(err))
		}
	}

	logging.Info("Discovery daemon running",
		zap.Int("services", len(cfg.Services)),
		zap.String("ttl_zero_policy", policy.String()),
	)

	if monitorSrv != nil {
		// Blocks until SIGINT/SIGTERM.
		return monitorSrv.Start()
	}

	// No monitoring server; block on the shutdown signal directly.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logging.Info("Shutdown signal received, stopping daemon...")
	return nil
}
