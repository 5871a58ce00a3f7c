// SmartAura Core - home automation coordinator
//
// This is the main entry point. It reads sensors, drives the light, AC and
// fan, runs the occupancy automation loop and the voice assistant, and
// serves the dashboard API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/api"
	"github.com/nerrad567/smartaura-core/internal/assistant"
	"github.com/nerrad567/smartaura-core/internal/auth"
	"github.com/nerrad567/smartaura-core/internal/automation"
	"github.com/nerrad567/smartaura-core/internal/command"
	"github.com/nerrad567/smartaura-core/internal/eventlog"
	"github.com/nerrad567/smartaura-core/internal/hardware/raspi"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/clickhouse"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/logging"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smartaura-core/internal/mqttbridge"
	"github.com/nerrad567/smartaura-core/internal/notify"
	"github.com/nerrad567/smartaura-core/internal/sensor"
	"github.com/nerrad567/smartaura-core/internal/telemetry"
	"github.com/nerrad567/smartaura-core/internal/vision"
	"github.com/nerrad567/smartaura-core/internal/voice"
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

// idleCheckInterval is how often the voice session timeout is evaluated.
const idleCheckInterval = time.Second

func main() {
	hashPassword := flag.String("hash-password", "", "print an argon2id hash for security.users and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on clean shutdown once ctx is cancelled.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup wiring is sequential
	log := logging.Default()
	log.Info("starting SmartAura Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("loading site timezone: %w", err)
	}

	// Actuators
	specs, err := deviceSpecs(cfg.Devices)
	if err != nil {
		return err
	}
	registry, err := actuator.NewRegistry(specs)
	if err != nil {
		return fmt.Errorf("creating actuator registry: %w", err)
	}
	registry.SetLogger(log)
	log.Info("actuator registry initialised", "devices", len(specs))

	// Event log
	store, err := eventlog.Open(ctx, cfg.EventLog, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	events := eventlog.New(store, cfg.EventLog.ListLimit)
	events.SetLogger(log)
	defer func() {
		log.Info("closing event log")
		if closeErr := events.Close(); closeErr != nil {
			log.Error("error closing event log", "error", closeErr)
		}
	}()
	registry.Subscribe(events)
	log.Info("event log opened", "backend", cfg.EventLog.Backend)

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
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// GPIO board (optional)
	var board *raspi.Board
	if cfg.GPIO.Enabled {
		board, err = raspi.Open(cfg.GPIO, cfg.Devices)
		if err != nil {
			return fmt.Errorf("opening GPIO board: %w", err)
		}
		defer func() {
			log.Info("releasing GPIO board")
			if closeErr := board.Close(); closeErr != nil {
				log.Error("error closing GPIO board", "error", closeErr)
			}
		}()
		board.SetLogger(log)
		if syncErr := board.Sync(registry.List()); syncErr != nil {
			return fmt.Errorf("syncing relays: %w", syncErr)
		}
		registry.Subscribe(board)
		log.Info("GPIO board opened", "relays", board.Relays())
	}

	// Sensors
	readers, err := sensorReaders(cfg, mqttClient, board)
	if err != nil {
		return err
	}
	sensors := sensor.NewCache(readers)
	sensors.SetLogger(log)

	// WebSocket hub
	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)
	registry.Subscribe(hub)
	sensors.OnUpdate(hub.SensorsUpdated)

	// MQTT bridge
	if mqttClient != nil {
		bridge := mqttbridge.New(mqttClient, mqttClient.Topics(), mqttClient.QoS(), registry)
		bridge.SetLogger(log)
		if startErr := bridge.Start(mqttClient); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		go bridge.Run(ctx)
		registry.Subscribe(bridge)
		sensors.OnUpdate(bridge.PublishSensors)
		log.Info("MQTT bridge started", "prefix", mqttClient.Topics().Prefix())
	}

	// Time-series sinks (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	var archive *clickhouse.Archive
	if cfg.ClickHouse.Enabled {
		archive, err = clickhouse.Open(ctx, cfg.ClickHouse, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to ClickHouse: %w", err)
		}
		defer func() {
			log.Info("closing ClickHouse connection")
			if closeErr := archive.Close(); closeErr != nil {
				log.Error("error closing ClickHouse", "error", closeErr)
			}
		}()
		log.Info("ClickHouse connected",
			"host", cfg.ClickHouse.Host,
			"database", cfg.ClickHouse.Database,
		)
	}

	// Alerts
	targets := []notify.Target{
		notify.EventLogTarget{Log: events},
		notify.BroadcastTarget{Hub: hub},
	}
	if mqttClient != nil {
		targets = append(targets, notify.MQTTTarget{
			Publisher: mqttClient,
			Topic:     mqttClient.Topics().Alerts(),
			QoS:       mqttClient.QoS(),
		})
	}
	alerts := notify.NewDispatcher(cfg.Automation.AlertEvery(), targets...)
	alerts.SetLogger(log)

	// Occupancy classifiers
	var (
		presence automation.PresenceDetector
		identity automation.IdentityRecognizer
	)
	if cfg.Vision.Enabled {
		visionClient, visionErr := vision.New(cfg.Vision.URL, cfg.Automation.ClassifierDeadline())
		if visionErr != nil && !errors.Is(visionErr, vision.ErrDisabled) {
			return fmt.Errorf("creating vision client: %w", visionErr)
		}
		if visionClient != nil {
			presence, identity = visionClient, visionClient
			log.Info("vision service configured", "url", cfg.Vision.URL)
		}
	} else {
		log.Info("vision disabled, automation will never confirm an occupant")
	}

	// Automation
	controller := automation.NewController(registry, sensors, presence, identity, alerts,
		automation.RulesFromConfig(cfg.Automation),
		automation.Options{
			Interval:          cfg.Automation.CycleEvery(),
			ClassifierTimeout: cfg.Automation.ClassifierDeadline(),
			Location:          loc,
		})
	controller.SetLogger(log)

	// Assistant
	provider, err := assistant.New(cfg.Assistant, assistant.DevicesFromSpecs(specs))
	if err != nil {
		return fmt.Errorf("creating assistant provider: %w", err)
	}
	router := command.NewRouter(provider, registry, cfg.Assistant.RequestTimeout())
	router.SetLogger(log)

	var (
		speaker  voice.Speaker = assistant.LogSpeaker{Logger: log}
		listener voice.Listener
	)
	if cfg.Voice.Enabled {
		if cfg.Voice.SpeechURL != "" {
			speech := assistant.NewSpeech(cfg.Voice.SpeechURL)
			speaker, listener = speech, speech
		} else {
			log.Warn("voice enabled without speech_url, spoken input is unavailable")
		}
	}

	voiceAssistant := voice.NewAssistant(voice.Deps{
		Router:   router,
		Devices:  registry,
		Leaver:   controller,
		Answerer: provider,
		Speaker:  speaker,
		QA:       events,
	}, voice.Options{
		WakePhrases:   cfg.Voice.WakePhrases,
		LeavePhrases:  cfg.Voice.LeavePhrases,
		IdleTimeout:   cfg.Voice.IdleAfter(),
		ListenTimeout: cfg.Voice.ListenFor(),
	})
	voiceAssistant.SetLogger(log)
	voiceAssistant.OnSessionChange(hub.VoiceSessionChanged)

	// Telemetry
	var sinks []telemetry.Sink
	if mqttClient != nil {
		sinks = append(sinks, telemetry.MQTTSink{
			Publisher: mqttClient,
			Topic:     mqttClient.Topics().Telemetry(),
			QoS:       mqttClient.QoS(),
		})
	}
	if influxClient != nil {
		sinks = append(sinks, telemetry.InfluxSink{Writer: influxClient})
	}
	if archive != nil {
		sinks = append(sinks, telemetry.ArchiveSink{Writer: archive})
	}

	// Users
	var users *auth.Directory
	if cfg.Security.AuthEnabled {
		users, err = auth.NewDirectory(cfg.Security.Users)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
	}

	// API server
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Registry:   registry,
		Sensors:    sensors,
		Automation: controller,
		Assistant:  voiceAssistant,
		Events:     events,
		Users:      users,
		Hub:        hub,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := healthCheck(ctx, mqttClient, influxClient, archive); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Background loops
	go sensors.Run(ctx, cfg.Sensors.PollEvery())
	if cfg.Automation.Enabled {
		go controller.Run(ctx)
	} else {
		log.Info("automation disabled")
	}
	go voiceAssistant.RunIdleTimer(ctx, idleCheckInterval)
	if listener != nil {
		go voiceAssistant.Run(ctx, listener)
	}
	if cfg.Telemetry.Enabled && len(sinks) > 0 {
		publisher := telemetry.NewPublisher(cfg.Site.ID, sensors, registry, sinks...)
		publisher.SetLogger(log)
		go publisher.Run(ctx, cfg.Telemetry.PublishEvery())
	}

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("SmartAura Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SMARTAURA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARTAURA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// deviceSpecs converts configured devices into registry specs.
func deviceSpecs(devices []config.DeviceConfig) ([]actuator.DeviceSpec, error) {
	specs := make([]actuator.DeviceSpec, 0, len(devices))
	for _, d := range devices {
		kind, err := actuator.ParseKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", d.ID, err)
		}
		specs = append(specs, actuator.DeviceSpec{
			ID:      d.ID,
			Name:    d.Name,
			Kind:    kind,
			Aliases: d.Aliases,
		})
	}
	return specs, nil
}

// sensorReaders selects a reader for each sensor per configuration. A
// source of "none" leaves the reader nil so the value stays unknown.
func sensorReaders(cfg *config.Config, mqttClient *mqtt.Client, board *raspi.Board) (sensor.Readers, error) {
	var readers sensor.Readers
	sim := sensor.NewSimulated(uint64(time.Now().UnixNano())) //nolint:gosec // seed only

	switch cfg.Sensors.Climate {
	case "simulated":
		readers.Climate = sim
	case "mqtt":
		if mqttClient == nil {
			return readers, fmt.Errorf("mqtt climate source requires MQTT")
		}
		climate := sensor.NewMQTTClimate(cfg.Sensors.ClimateStaleAfter())
		if err := mqttClient.Subscribe(cfg.Sensors.ClimateTopic, mqttClient.QoS(), climate.HandleMessage); err != nil {
			return readers, fmt.Errorf("subscribing to %s: %w", cfg.Sensors.ClimateTopic, err)
		}
		readers.Climate = climate
	}

	switch cfg.Sensors.Digital {
	case "simulated":
		readers.AirQuality = sim
		readers.Motion = sim
	case "gpio":
		if board == nil {
			return readers, fmt.Errorf("gpio sensor source requires the GPIO board")
		}
		readers.AirQuality = board
		readers.Motion = board
	}
	return readers, nil
}

// healthCheck verifies the enabled infrastructure connections. Nil clients
// are skipped.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, archive *clickhouse.Archive) error {
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
	if archive != nil {
		if err := archive.HealthCheck(ctx); err != nil {
			return fmt.Errorf("clickhouse: %w", err)
		}
	}
	return nil
}
