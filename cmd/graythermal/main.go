// Gray Logic Thermal - PID temperature controller
//
// This is the main entry point for the thermal controller. It regulates
// a fan/heater device over HTTP with a time-proportioned PID loop, feeds
// the device watchdog, polls its temperature, and exposes the control
// parameters over MQTT, InfluxDB and an operator HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/nerrad567/gray-logic-thermal/internal/api"
	"github.com/nerrad567/gray-logic-thermal/internal/audit"
	"github.com/nerrad567/gray-logic-thermal/internal/device"
	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-thermal/internal/params"
	"github.com/nerrad567/gray-logic-thermal/internal/pid"
	"github.com/nerrad567/gray-logic-thermal/internal/relay"
	"github.com/nerrad567/gray-logic-thermal/internal/request"
	"github.com/nerrad567/gray-logic-thermal/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when GRAYTHERMAL_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// eventQueueSize bounds the audit and MQTT event queues.
	eventQueueSize = 128

	// startupTimeout bounds the watchdog enable and status requests.
	startupTimeout = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting Gray Logic Thermal",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, cfg.Site.ID, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database and control event log
	db, err := database.Open(ctx, cfg.Database)
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
	log.Info("database ready", "path", db.Path())

	eventRepo := audit.NewSQLiteRepository(db.DB)
	eventLog := audit.NewRecorder(eventRepo, cfg.Site.ID, eventQueueSize)
	eventLog.SetLogger(log.Component("audit"))
	defer eventLog.Close()

	checks := map[string]api.HealthChecker{"database": db}
	events := relay.Fanout{eventLog}

	// MQTT (optional)
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
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		checks["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		eventPub := relay.NewEventPublisher(mqttClient, cfg.Site.ID, eventQueueSize)
		eventPub.SetLogger(log.Component("relay"))
		defer eventPub.Close()
		events = append(events, eventPub)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var (
		iterRecorder pid.Recorder
		tempRecorder device.TemperatureRecorder
	)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		telemetry := relay.NewTelemetry(influxClient)
		iterRecorder = telemetry
		tempRecorder = telemetry
	} else {
		log.Info("InfluxDB disabled")
	}

	var hub *api.Hub
	if cfg.API.Enabled {
		hub = api.NewHub(cfg.WebSocket, log.Component("api"))
		events = append(events, hub)
	}

	// Control parameters
	store := params.New(initialParams(cfg.Control))
	defer store.Close()

	// Device
	eps, err := device.NewEndpoints(cfg.Device.BaseURL, devicePaths(cfg.Device.Paths))
	if err != nil {
		return fmt.Errorf("resolving device endpoints: %w", err)
	}

	commandClient := request.NewClient(request.Config{
		Timeout:   cfg.Device.CommandTimeout,
		RetryWait: cfg.Device.RetryWait,
	})
	commandClient.SetLogger(log.Component("request").With("client", "command"))
	pollClient := request.NewClient(request.Config{
		Timeout:   cfg.Device.PollTimeout,
		RetryWait: cfg.Device.RetryWait,
	})
	pollClient.SetLogger(log.Component("request").With("client", "poll"))

	// Commands outlive the shutdown signal so the final "off" is delivered.
	cmdCtx, cmdCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cmdCancel()
	commander := device.NewCommander(cmdCtx, commandClient, eps, cfg.Device.CommandRetries, events)
	commander.SetLogger(log.Component("device"))

	loop := pid.New(pid.Options{
		Store:     store,
		Commander: commander,
		Recorder:  iterRecorder,
		Events:    events,
	})
	loop.SetLogger(log.Component("pid"))
	defer func() {
		log.Info("stopping control loop")
		loop.Stop()
		commander.Wait()
	}()

	// Periodic helpers
	scheduler := gocron.NewScheduler(time.UTC)
	defer scheduler.Stop()

	if cfg.Watchdog.Enabled {
		watchdog := device.NewWatchdog(pollClient, eps, device.WatchdogOptions{Retries: cfg.Watchdog.Retries})
		watchdog.SetLogger(log.Component("watchdog"))

		startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		if enableErr := watchdog.Enable(startCtx); enableErr != nil {
			log.Warn("watchdog enable failed", "error", enableErr)
		}
		if status, statusErr := watchdog.Status(startCtx); statusErr != nil {
			log.Warn("watchdog status unavailable", "error", statusErr)
		} else {
			log.Info("watchdog status", "status", status)
		}
		cancel()

		if _, regErr := watchdog.Register(ctx, scheduler, cfg.Watchdog.Interval); regErr != nil {
			return fmt.Errorf("scheduling watchdog: %w", regErr)
		}
	}

	poller := device.NewPoller(pollClient, eps, store, cfg.Poller.Retries, tempRecorder)
	poller.SetLogger(log.Component("poller"))
	if _, regErr := poller.Register(ctx, scheduler, cfg.Poller.Interval); regErr != nil {
		return fmt.Errorf("scheduling poller: %w", regErr)
	}
	scheduler.StartAsync()
	log.Info("periodic helpers started",
		"watchdog", cfg.Watchdog.Enabled,
		"watchdog_interval", cfg.Watchdog.Interval,
		"poll_interval", cfg.Poller.Interval,
	)

	// Relay to MQTT
	if mqttClient != nil {
		statePub := relay.NewStatePublisher(store, mqttClient, cfg.Site.ID)
		statePub.SetLogger(log.Component("relay"))
		go statePub.Run(ctx)

		commands := relay.NewCommandHandler(store, loop)
		commands.SetLogger(log.Component("relay"))
		topic := mqtt.Topics{}.ThermalCommand(cfg.Site.ID)
		if subErr := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), commands.HandleMessage); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
		// Runs before the loop is stopped, so no command restarts it.
		defer func() {
			if unsubErr := mqttClient.Unsubscribe(topic); unsubErr != nil {
				log.Warn("error unsubscribing commands", "topic", topic, "error", unsubErr)
			}
			commands.Close()
		}()
	}

	// Operator API
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log.Component("api"),
			Store:      store,
			Controller: loop,
			Events:     eventRepo,
			Checks:     checks,
			Hub:        hub,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if cfg.Control.AutoStart {
		if !loop.Start() {
			log.Warn("auto start skipped, setpoint or period not configured")
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API, command unsubscribe,
	// scheduler, loop stop and command drain, store, InfluxDB, event publisher, MQTT, event log,
	// database.

	log.Info("Gray Logic Thermal stopped")
	return nil
}

// getConfigPath returns GRAYTHERMAL_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("GRAYTHERMAL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// initialParams seeds the store from the control section.
func initialParams(c config.ControlConfig) params.Snapshot {
	p := params.Defaults()
	p.Gain = c.Gain
	p.Kp = c.Kp
	p.Ki = c.Ki
	p.Kd = c.Kd
	p.MinOutputPercentage = c.MinOutputPercentage
	p.Period = c.Period
	if c.Setpoint != nil {
		p.Setpoint = *c.Setpoint
		p.HasSetpoint = true
	}
	return p
}

// devicePaths converts the configured paths. Empty entries fall back to
// the device defaults inside device.NewEndpoints.
func devicePaths(c config.DevicePathsConfig) device.Paths {
	return device.Paths{
		Temperature:    c.Temperature,
		On:             c.On,
		Off:            c.Off,
		WatchdogEnable: c.WatchdogEnable,
		WatchdogReset:  c.WatchdogReset,
		WatchdogStatus: c.WatchdogStatus,
	}
}

// healthCheck verifies every registered infrastructure component.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	for _, name := range []string{"database", "mqtt", "influxdb"} {
		c, ok := checks[name]
		if !ok {
			continue
		}
		if err := c.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
