// Robovac Bridge - Eufy cloud-MQTT bridge
//
// This is the main entry point for the robovac bridge. It authenticates
// against the vendor cloud, resolves the account's device roster, holds
// one live MQTT session per vacuum and records normalized state history.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashdale/robovac-bridge/internal/cloud"
	"github.com/ashdale/robovac-bridge/internal/infrastructure/config"
	"github.com/ashdale/robovac-bridge/internal/infrastructure/logging"
	"github.com/ashdale/robovac-bridge/internal/infrastructure/telemetry"
	"github.com/ashdale/robovac-bridge/internal/robovac"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting robovac bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Create the cloud client. No network traffic yet; the manager logs
	// in when it starts.
	cloudClient, err := cloud.New(cloud.Options{
		Email:    cfg.Cloud.Email,
		Password: cfg.Cloud.Password,
		OpenUDID: cfg.Cloud.OpenUDID,
		Timeout:  cfg.GetCloudTimeout(),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("creating cloud client: %w", err)
	}

	// Connect to InfluxDB (optional)
	var telemetryClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		telemetryClient, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetryClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)

		telemetryClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("state history disabled")
	}

	// Log in, resolve the roster and bring up one session per device
	manager, err := robovac.NewManager(robovac.ManagerOptions{
		Cloud:          cloudClient,
		OpenUDID:       cfg.Cloud.OpenUDID,
		QoS:            byte(cfg.Session.QoS),
		ConnectTimeout: cfg.GetConnectTimeout(),
		CredentialTTL:  cfg.GetCredentialTTL(),
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("starting device sessions: %w", err)
	}
	defer func() {
		log.Info("disconnecting device sessions")
		if closeErr := manager.Close(); closeErr != nil {
			log.Error("error closing sessions", "error", closeErr)
		}
	}()

	for _, session := range manager.Sessions() {
		log.Info("device session up",
			"device_id", session.DeviceID(),
			"model", session.Model(),
			"name", session.Name(),
			"activity", session.Activity(),
		)
		if telemetryClient != nil {
			session.AddObserver(telemetryClient.SessionObserver(session))
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. Device sessions
	// 2. InfluxDB (if enabled)

	log.Info("robovac bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ROBOVAC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ROBOVAC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
