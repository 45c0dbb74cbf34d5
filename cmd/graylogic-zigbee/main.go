// Gray Logic Zigbee - accessory service for zigbee2mqtt networks.
//
// The service resolves each paired Zigbee device to an accessory handler
// through the capability catalog (built-in device table plus the device
// database), keeps handler state in step with zigbee2mqtt over MQTT, and
// exposes devices and accessories over a REST and WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
	"github.com/nerrad567/gray-logic-zigbee/internal/api"
	"github.com/nerrad567/gray-logic-zigbee/internal/audit"
	"github.com/nerrad567/gray-logic-zigbee/internal/devicedb"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
	"github.com/nerrad567/gray-logic-zigbee/internal/zigbee"
	"github.com/nerrad567/gray-logic-zigbee/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // Startup sequence: linear wiring of every component
	log := logging.Default()
	log.Info("starting Gray Logic Zigbee",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	// Build the catalog first: a broken device database should fail fast,
	// before any connection is made.
	records, err := loadDeviceDatabase(cfg.Zigbee)
	if err != nil {
		return err
	}
	catalog, err := platform.Populate(records)
	if err != nil {
		return fmt.Errorf("building capability catalog: %w", err)
	}
	log.Info("capability catalog ready", "identities", catalog.Size(), "records", len(records))

	db, err := database.Open(ctx, database.Config{
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
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			influxClient.Close()
		}()
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	zb, err := zigbee.NewClient(zigbee.Options{
		MQTT:           &mqttAdapter{client: mqttClient},
		BaseTopic:      cfg.Zigbee.BaseTopic,
		RequestTimeout: cfg.GetRequestTimeout(),
		Logger:         log.Component("zigbee"),
	})
	if err != nil {
		return fmt.Errorf("creating zigbee client: %w", err)
	}

	auditRepo := audit.NewSQLiteRepository(db.DB)
	plat, err := platform.New(platform.Options{
		Catalog:          catalog,
		Client:           zb,
		Shells:           platform.NewSQLiteShellRepository(db.DB),
		Audit:            auditRepo,
		PruneStaleShells: cfg.Zigbee.PruneStaleShells,
		Logger:           log.Component("platform"),
	})
	if err != nil {
		return fmt.Errorf("creating platform: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Client:   zb,
		Platform: plat,
		Audit:    auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	plat.AddSink(server.Hub())
	if influxClient != nil {
		plat.AddSink(platform.SinkFunc(func(ev platform.Event) {
			if ev.Type == platform.EventStateChanged {
				influxClient.WriteAccessoryState(ev.Address, ev.Kind, ev.Characteristics)
			}
		}))
		zb.OnBridgeState(influxClient.WriteBridgeAvailability)
	}

	discoveries := newDiscoverer(plat, log)
	go discoveries.Run(ctx)

	zb.SetStateHandler(plat.HandleState)
	zb.OnDevicesChanged(func([]accessory.Device) { discoveries.Trigger() })
	if err := zb.Start(); err != nil {
		return fmt.Errorf("starting zigbee client: %w", err)
	}
	defer func() {
		log.Info("stopping zigbee client")
		zb.Stop()
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal",
		"auth_enabled", cfg.AuthEnabled(),
		"base_topic", cfg.Zigbee.BaseTopic,
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadDeviceDatabase returns the built-in records (when enabled) followed by
// the records of the configured local file, so local entries win.
func loadDeviceDatabase(cfg config.ZigbeeConfig) ([]devicedb.Record, error) {
	var records []devicedb.Record
	if cfg.IncludeDefaultDatabase {
		builtin, err := devicedb.Default()
		if err != nil {
			return nil, fmt.Errorf("loading built-in device database: %w", err)
		}
		records = append(records, builtin...)
	}
	if cfg.DeviceDatabase != "" {
		local, err := devicedb.LoadFile(cfg.DeviceDatabase)
		if err != nil {
			return nil, fmt.Errorf("loading device database %s: %w", cfg.DeviceDatabase, err)
		}
		records = append(records, local...)
	}
	return records, nil
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
