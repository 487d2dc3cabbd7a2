// Graylogic is the home-automation controller runtime.
//
// It builds the configured RF sockets, areas and automations, serves the
// HTTP API and WebSocket events, and runs the timer until interrupted.
//
// Usage:
//
//	graylogic run --config configs/config.yaml
//
// See 'graylogic --help' for the other commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/audit"
	"github.com/nerrad567/gray-logic-controller/internal/auth"
	"github.com/nerrad567/gray-logic-controller/internal/controller"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
	"github.com/nerrad567/gray-logic-controller/internal/topology"
	"github.com/nerrad567/gray-logic-controller/migrations"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is used when neither --config nor GRAYLOGIC_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "graylogic",
		Short: "Gray Logic home-automation controller",
		Long: `Gray Logic drives 433 MHz remote sockets through MQTT RF gateways,
groups them into areas, switches them from time-window automations and
exposes everything over an HTTP API with WebSocket events.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config.yaml (default $GRAYLOGIC_CONFIG or "+defaultConfigPath+")")

	path := func() string {
		if configPath != "" {
			return configPath
		}
		return getConfigPath()
	}

	root.AddCommand(
		newRunCmd(path),
		newSettingsCmd(path),
		newTokenCmd(path),
		newHashPasswordCmd(),
		newDiscoverCmd(path),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(path func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the controller",
		Long: `Start the controller and block until SIGINT or SIGTERM.

Startup runs in phases: transport, logging, timer, domain, settings,
listener, API routes. A failure in the domain of one entity is logged and
skipped; a failure anywhere else aborts startup with a non-zero exit.`,
		Example: `  graylogic run --config /etc/graylogic/config.yaml
  GRAYLOGIC_LOG_LEVEL=debug graylogic run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), path())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graylogic %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// run is the controller's main loop, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting Gray Logic controller",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database ready", "path", cfg.Database.Path)

	opts := []topology.Option{topology.WithJournal(audit.NewSQLiteRepository(db.DB))}
	checks := map[string]api.HealthChecker{"database": db}

	if cfg.MQTT.Enabled {
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
		mqttClient.SetLogger(log)
		opts = append(opts, topology.WithBus(mqttClient))
		checks["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		opts = append(opts, topology.WithPointWriter(influxClient))
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	deps := controller.Deps{
		Config:       cfg,
		Version:      version,
		Settings:     settings.NewSQLiteRepository(db.DB),
		Initializer:  topology.New(cfg, opts...),
		HealthChecks: checks,
	}
	if len(cfg.Security.Users) > 0 {
		creds, err := auth.NewCredentials(cfg.Security.Users)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		deps.Credentials = creds
		log.Info("API login enabled", "users", creds.Len())
	}

	ctrl, err := controller.New(deps)
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	if err := ctrl.Run(ctx); err != nil {
		return err
	}
	log.Info("Gray Logic controller stopped")
	return nil
}

// openDatabase opens the settings database and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// getConfigPath returns GRAYLOGIC_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
