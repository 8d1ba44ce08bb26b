// Heimdall - remote desktop launcher for kiosk and control-room hosts.
//
// This is the backend: it stores VNC and RDP connection profiles in SQLite,
// serves them over a JSON API and starts the matching viewer on request.
// Clients follow changes through the /api/events WebSocket stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spark-heimdall/heimdall/internal/api"
	"github.com/spark-heimdall/heimdall/internal/device"
	"github.com/spark-heimdall/heimdall/internal/events"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/config"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/database"
	"github.com/spark-heimdall/heimdall/internal/infrastructure/logging"
	"github.com/spark-heimdall/heimdall/internal/launcher"
	"github.com/spark-heimdall/heimdall/internal/settings"
	"github.com/spark-heimdall/heimdall/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/heimdall.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the backend together and blocks until ctx is cancelled.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Heimdall",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.LoadOrInit(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // Nothing left to report to

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	schema, err := db.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	log.Info("database ready", "path", db.Path(), "schema", schema)

	deviceRegistry := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	deviceRegistry.SetLogger(log.With("component", "device"))
	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.GetDeviceCount())

	settingsService := settings.NewService(cfg, configPath, deviceRegistry)
	settingsService.SetLogger(log.With("component", "settings"))

	// The hub exists before the server so the launcher callbacks can
	// broadcast through it.
	hub := api.NewHub(cfg.WebSocket, log.With("component", "websocket"))
	go hub.Run(ctx)

	viewer := launcher.New(launcher.Config{
		Clients: cfg.Clients,
		OnStart: func(s launcher.Session) {
			hub.Broadcast(events.ConnectionStarted, connectionPayload(s, nil))
		},
		OnStop: func(s launcher.Session, err error) {
			hub.Broadcast(events.ConnectionStopped, connectionPayload(s, err))
		},
	})
	viewer.SetLogger(log.With("component", "launcher"))
	defer func() {
		log.Info("closing viewer session")
		if closeErr := viewer.Close(); closeErr != nil {
			log.Error("error closing viewer", "error", closeErr)
		}
	}()

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log.With("component", "api"),
		Registry:    deviceRegistry,
		Settings:    settingsService,
		Launcher:    viewer,
		Database:    db,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening", "address", server.Addr())

	autoStart(ctx, settingsService, viewer, log)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server, viewer, database.
	return nil
}

// autoStart opens the configured start-up device. Failures are logged; the
// API stays up so the target can be fixed remotely.
func autoStart(ctx context.Context, svc *settings.Service, viewer *launcher.Launcher, log *logging.Logger) {
	target, ok, err := svc.AutoStartTarget(ctx)
	if err != nil {
		log.Error("auto-start lookup failed", "error", err)
		return
	}
	if !ok {
		return
	}

	if _, err := viewer.Connect(ctx, target); err != nil {
		log.Error("auto-start connect failed", "device_id", target.ID, "error", err)
		return
	}
	log.Info("auto-start connected", "device_id", target.ID, "name", target.Name)
}

// connectionPayload builds the payload of connection.started and
// connection.stopped events.
func connectionPayload(s launcher.Session, err error) events.ConnectionPayload {
	p := events.ConnectionPayload{
		DeviceID:   s.DeviceID,
		DeviceName: s.DeviceName,
		Protocol:   string(s.Protocol),
		PID:        s.PID,
	}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

// getConfigPath returns the configuration file path.
// Uses HEIMDALL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEIMDALL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
