package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/javen-yan/miot-agent/internal/api"
	"github.com/javen-yan/miot-agent/internal/audit"
	"github.com/javen-yan/miot-agent/internal/bridges/miot"
	"github.com/javen-yan/miot-agent/internal/device"
	"github.com/javen-yan/miot-agent/internal/infrastructure/config"
	"github.com/javen-yan/miot-agent/internal/infrastructure/database"
	"github.com/javen-yan/miot-agent/internal/infrastructure/influxdb"
	"github.com/javen-yan/miot-agent/internal/infrastructure/logging"
	"github.com/javen-yan/miot-agent/internal/infrastructure/mqtt"
	"github.com/javen-yan/miot-agent/internal/mcp"
	"github.com/javen-yan/miot-agent/internal/tool"
	"github.com/javen-yan/miot-agent/internal/toolset"
	"github.com/javen-yan/miot-agent/migrations"
)

type serveOptions struct {
	configPath string
	transport  string

	stdin  io.Reader
	stdout io.Writer
}

// loadConfig loads the file at opts.configPath and applies the
// --transport override.
func loadConfig(opts serveOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// run starts every component and serves until ctx is cancelled or the MCP
// client closes stdin.
func run(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// stdout carries MCP frames when stdio is served.
	if cfg.StdioEnabled() && cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	log := logging.New(cfg.Logging, version)
	log.Info("starting miot-agent",
		"version", version,
		"commit", commit,
		"config", opts.configPath,
		"transport", cfg.Server.Transport,
		"credentials", cfg.Mijia.Source,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.With("component", "mqtt"))
	defer func() {
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", mqttClient.ClientID(),
	)

	bridge := miot.New(mqttClient, miot.Config{
		Topics:         mqttClient.Topics(),
		ClientID:       mqttClient.ClientID(),
		BridgeID:       cfg.MQTT.BridgeID,
		QoS:            mqttClient.QoS(),
		RequestTimeout: cfg.GetRequestTimeout(),
		LoginTimeout:   cfg.GetLoginTimeout(),
	})
	bridge.SetLogger(log.With("component", "bridge"))
	defer func() {
		if closeErr := bridge.Close(); closeErr != nil {
			log.Error("error closing bridge client", "error", closeErr)
		}
	}()

	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     mqttClient,
	}

	var telemetry device.Telemetry
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		telemetry = influxClient
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	adapter := device.NewAdapter(device.AdapterOptions{
		Credentials: device.Credentials{
			Username: cfg.Mijia.Username,
			Password: cfg.Mijia.Password,
			EnableQR: cfg.Mijia.EnableQR,
		},
		Authenticator: bridge,
		Factory:       bridge.Session,
		AuthStore:     newAuthStore(cfg.Mijia, db),
		Telemetry:     telemetry,
		Logger:        log.With("component", "device"),
	})

	registry, err := newRegistry(adapter, log.With("component", "tools"))
	if err != nil {
		return err
	}
	history := audit.NewSQLiteRepository(db.DB)
	log.Info("tools registered", "count", registry.Len(), "categories", registry.Categories())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.StdioEnabled() {
		server, err := mcp.NewServer(recorded(registry, history, audit.SourceMCP, log), registry, mcp.ServerInfo{
			Name:    cfg.Server.Name,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		server.SetLogger(log.With("component", "mcp"))
		g.Go(func() error {
			defer cancel() // the client closing stdin ends the process
			return server.Serve(ctx, opts.stdin, opts.stdout)
		})
	}

	if cfg.HTTPEnabled() {
		server, err := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.With("component", "api"),
			Executor: recorded(registry, history, audit.SourceHTTP, log),
			Catalog:  registry,
			Device:   adapter,
			History:  history,
			Checks:   checks,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			return server.Close()
		})
	}

	if cfg.Mijia.AutoConnect {
		g.Go(func() error {
			if err := adapter.Connect(ctx); err != nil {
				log.Warn("auto connect failed; use the connect tool to retry", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	if disconnectErr := adapter.Disconnect(context.Background()); disconnectErr != nil {
		log.Warn("error disconnecting from cloud", "error", disconnectErr)
	}
	log.Info("miot-agent stopped")
	return err
}

// healthCheck verifies every infrastructure connection once at startup.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for name, check := range checks {
		if err := check.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func newAuthStore(cfg config.MijiaConfig, db *database.DB) device.AuthStore {
	if cfg.AuthStore == config.AuthStoreFile {
		return device.NewFileAuthStore(cfg.AuthFile)
	}
	return device.NewSQLiteAuthStore(db.DB, device.DefaultSessionKey)
}

// newRegistry registers the device tools, logging each registration.
func newRegistry(ctrl toolset.DeviceController, logger tool.Logger) (*tool.Registry, error) {
	registry := tool.NewRegistry()
	registry.SetLogger(logger)
	if err := toolset.RegisterDeviceTools(registry, ctrl); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return registry, nil
}

func recorded(registry *tool.Registry, history audit.Repository, source string, log *logging.Logger) *audit.RecordingExecutor {
	exec := audit.NewRecordingExecutor(registry, registry, history, source)
	exec.SetLogger(log.With("component", "audit"))
	return exec
}
