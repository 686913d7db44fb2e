package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/nerrad567/mbconv/internal/api"
	"github.com/nerrad567/mbconv/internal/busconfig"
	"github.com/nerrad567/mbconv/internal/converter"
	"github.com/nerrad567/mbconv/internal/history"
	"github.com/nerrad567/mbconv/internal/infrastructure/config"
	"github.com/nerrad567/mbconv/internal/infrastructure/database"
	"github.com/nerrad567/mbconv/internal/infrastructure/influxdb"
	"github.com/nerrad567/mbconv/internal/infrastructure/logging"
	"github.com/nerrad567/mbconv/internal/infrastructure/mqtt"
	"github.com/nerrad567/mbconv/migrations"
)

// app holds the configuration and the optional sinks of one invocation.
type app struct {
	cfg *config.Config
	log *logging.Logger

	db     *database.DB
	runs   *history.SQLiteRepository
	mqtt   *mqtt.Client
	influx *influxdb.Client
}

// newApp loads the configuration and connects every enabled sink.
// Sinks are optional: a compile never needs one.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{
		cfg: cfg,
		log: logging.New(cfg.Logging, version),
	}

	if cfg.Database.Enabled {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.db = db
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			a.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		a.runs = history.NewSQLiteRepository(db.DB)
		a.log.Debug("compile history enabled", "path", db.Path())
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetOnConnect(func() {
			a.log.Info("MQTT reconnected")
		})
		client.SetOnDisconnect(func(err error) {
			a.log.Warn("MQTT connection lost", "error", err)
		})
		a.mqtt = client
		a.log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			// Metrics are best-effort; compiles continue without them.
			a.log.Warn("InfluxDB unavailable, compile metrics disabled", "error", err)
		} else {
			client.SetOnError(func(err error) {
				a.log.Warn("InfluxDB write failed", "error", err)
			})
			a.influx = client
		}
	}

	return a, nil
}

// converter builds a Converter wired to the connected sinks.
func (a *app) converter() (*converter.Converter, error) {
	deps := converter.Deps{
		Options: converter.OptionsFromConfig(a.cfg.Converter),
		Logger:  a.log,
	}
	// Assign only non-nil clients so the interfaces stay nil when a sink is off.
	if a.runs != nil {
		deps.Recorder = a.runs
	}
	if a.mqtt != nil {
		deps.Publisher = a.mqtt
	}
	if a.influx != nil {
		deps.Metrics = a.influx
	}
	return converter.New(deps)
}

// serve runs the HTTP compile service until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	conv, err := a.converter()
	if err != nil {
		return err
	}

	deps := api.Deps{
		Config:    a.cfg.API,
		Logger:    a.log,
		Converter: conv,
		Version:   version,
	}
	if a.runs != nil {
		deps.Runs = a.runs
	}
	deps.Checks = a.healthChecks()

	srv, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	checks := a.healthChecks()
	checks["api"] = srv
	if err := healthCheck(ctx, checks); err != nil {
		a.log.Warn("startup health check failed", "error", err)
	} else {
		a.log.Info("all components healthy")
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return srv.Close()
}

// healthChecks returns the connected sinks keyed by component name.
func (a *app) healthChecks() map[string]api.HealthChecker {
	checks := make(map[string]api.HealthChecker)
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.mqtt != nil {
		checks["mqtt"] = a.mqtt
	}
	if a.influx != nil {
		checks["influxdb"] = a.influx
	}
	return checks
}

// healthCheck runs every check and returns the first failure.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := checks[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// printHistory lists recent compile runs as a table.
func (a *app) printHistory(ctx context.Context, w io.Writer, limit int, status, device string) error {
	if a.runs == nil {
		return errors.New("compile history is disabled; enable database in the config or set MBCONV_DATABASE_PATH")
	}

	result, err := a.runs.List(ctx, history.Filter{
		Status:     history.Status(status),
		DeviceName: device,
		Limit:      limit,
	})
	if err != nil {
		return fmt.Errorf("listing compile runs: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSOURCE\tDEVICE\tSTATUS\tPOINTS\tREQUESTS\tDETAIL")
	for _, run := range result.Runs {
		detail := fmt.Sprintf("endian=%d", run.Endian)
		if run.Status != history.StatusOK {
			detail = run.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			run.CreatedAt.Local().Format(time.DateTime),
			run.Source,
			run.DeviceName,
			run.Status,
			run.EnabledPoints, run.PointCount,
			run.RequestCount,
			detail,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d of %d runs\n", len(result.Runs), result.Total)
	return nil
}

// Close releases every connected sink.
func (a *app) Close() {
	if a.influx != nil {
		a.influx.Close() //nolint:errcheck // Close always returns nil
	}
	if a.mqtt != nil {
		if err := a.mqtt.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
}

// encodeBus renders a compiled bus object for a file or stdout.
func encodeBus(w io.Writer, res *converter.Result, bom bool) error {
	return busconfig.Encode(w, res.Bus, bom)
}
