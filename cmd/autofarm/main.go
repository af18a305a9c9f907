// AutoFarm Core - ESP32 Feeder Bridge
//
// This is the main entry point for the AutoFarm Core application. It
// bridges an ESP32 feeder/sensor unit speaking a newline-delimited TCP
// protocol to an HTTP control API, a dashboard WebSocket feed, SQLite
// persistence, and optional MQTT/InfluxDB telemetry mirrors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/autofarm/autofarm-core/migrations"

	"github.com/autofarm/autofarm-core/internal/api"
	"github.com/autofarm/autofarm-core/internal/dashboard"
	"github.com/autofarm/autofarm-core/internal/devicelink"
	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
	"github.com/autofarm/autofarm-core/internal/infrastructure/database"
	"github.com/autofarm/autofarm-core/internal/infrastructure/influxdb"
	"github.com/autofarm/autofarm-core/internal/infrastructure/logging"
	"github.com/autofarm/autofarm-core/internal/infrastructure/mqtt"
	"github.com/autofarm/autofarm-core/internal/notify"
	"github.com/autofarm/autofarm-core/internal/storage"
	"github.com/autofarm/autofarm-core/internal/telemetry"
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
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AutoFarm Core",
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

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := storage.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker (optional mirror)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT mirror disabled")
	}

	// Connect to InfluxDB (optional mirror)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB mirror disabled")
	}

	// Dashboard hub; run by the API server once it starts
	hub := dashboard.NewHub(cfg.WebSocket, log)

	// Frame fan-out: storage, dashboard, then optional mirrors.
	// The mirror arguments stay nil interfaces when disabled.
	var mqttPub telemetry.MQTTPublisher
	if mqttClient != nil {
		mqttPub = mqttClient
	}
	var metrics telemetry.MetricsWriter
	if influxClient != nil {
		metrics = influxClient
	}
	sink := telemetry.NewSink(cfg.Device.ID, repo, hub, mqttPub, metrics, log)

	// Device link: session state machine plus TCP listener
	session := devicelink.NewSession(cfg.Device, sink, log)
	session.SetOnStateChange(sink.HandleStateChange)
	listener := devicelink.NewListener(cfg.Device, session, log)
	if err := listener.Start(ctx); err != nil {
		return fmt.Errorf("starting device listener: %w", err)
	}
	defer func() {
		log.Info("stopping device listener")
		if closeErr := listener.Close(); closeErr != nil {
			log.Error("error closing device listener", "error", closeErr)
		}
	}()
	log.Info("device listener started",
		"address", listener.Addr().String(),
		"device_id", cfg.Device.ID,
	)

	// Command bridge: external automations publish firmware commands on
	// the MQTT command topic
	if mqttClient != nil {
		commands := telemetry.NewCommandBridge(cfg.Device.ID, mqttClient, session, log)
		if err := commands.Start(); err != nil {
			return fmt.Errorf("starting command bridge: %w", err)
		}
		defer func() {
			log.Info("stopping command bridge")
			if closeErr := commands.Close(); closeErr != nil {
				log.Error("error closing command bridge", "error", closeErr)
			}
		}()
		log.Info("command bridge started", "device_id", cfg.Device.ID)
	}

	// HTTP control API
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Device:   session,
		Hub:      hub,
		Notifier: notify.New(cfg.Notify),
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, apiServer, listener, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Device listener
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("AutoFarm Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses AUTOFARM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AUTOFARM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - apiServer: HTTP API server to check
//   - listener: Device TCP listener to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, apiServer *api.Server, listener *devicelink.Listener, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if err := listener.HealthCheck(ctx); err != nil {
		return fmt.Errorf("device listener: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
