package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for SmartAura Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Security   SecurityConfig   `yaml:"security"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Database   DatabaseConfig   `yaml:"database"`
	EventLog   EventLogConfig   `yaml:"eventlog"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Devices    []DeviceConfig   `yaml:"devices"`
	Automation AutomationConfig `yaml:"automation"`
	Voice      VoiceConfig      `yaml:"voice"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Vision     VisionConfig     `yaml:"vision"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// DashboardDir serves a built frontend instead of the embedded page.
	DashboardDir string `yaml:"dashboard_dir"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket push settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// SecurityConfig contains API authentication settings.
type SecurityConfig struct {
	AuthEnabled bool         `yaml:"auth_enabled"`
	JWT         JWTConfig    `yaml:"jwt"`
	Users       []UserConfig `yaml:"users"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // minutes
}

// UserConfig is a dashboard account. PasswordHash is an argon2id PHC string.
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// ClickHouseConfig contains settings for the sensor archive.
type ClickHouseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DialTimeout int    `yaml:"dial_timeout"` // seconds
}

// DatabaseConfig contains SQLite settings for the sqlite event log backend.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"` // seconds
}

// EventLogConfig selects where system events and voice Q/A pairs are kept.
type EventLogConfig struct {
	Backend   string `yaml:"backend"` // jsonl, sqlite
	Dir       string `yaml:"dir"`
	ListLimit int    `yaml:"list_limit"`
}

// SensorsConfig controls the sensor poll loop and its readers.
type SensorsConfig struct {
	PollInterval  int    `yaml:"poll_interval"` // seconds
	Climate       string `yaml:"climate"`       // simulated, mqtt, none
	Digital       string `yaml:"digital"`       // simulated, gpio, none
	ClimateTopic  string `yaml:"climate_topic"`
	ClimateMaxAge int    `yaml:"climate_max_age"` // seconds
}

// GPIOConfig contains Raspberry Pi header pin assignments for the inputs.
// Pin names are physical header numbers as understood by the raspi adaptor.
type GPIOConfig struct {
	Enabled       bool   `yaml:"enabled"`
	MotionPin     string `yaml:"motion_pin"`
	AirQualityPin string `yaml:"air_quality_pin"`
}

// DeviceConfig declares one actuator.
type DeviceConfig struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"` // light, ac, fan
	Aliases []string `yaml:"aliases"`
	Pin     string   `yaml:"pin"`
}

// AutomationConfig controls the occupancy-driven automation loop.
type AutomationConfig struct {
	Enabled           bool        `yaml:"enabled"`
	Interval          int         `yaml:"interval"`           // seconds
	ClassifierTimeout int         `yaml:"classifier_timeout"` // seconds
	AlertInterval     int         `yaml:"alert_interval"`     // seconds between unknown-occupant alerts
	LightDevice       string      `yaml:"light_device"`
	ACDevice          string      `yaml:"ac_device"`
	FanDevice         string      `yaml:"fan_device"`
	Rules             RulesConfig `yaml:"rules"`
}

// RulesConfig holds the time-of-day and temperature thresholds.
type RulesConfig struct {
	LightOnHour  int           `yaml:"light_on_hour"`
	LightOffHour int           `yaml:"light_off_hour"`
	HotAbove     float64       `yaml:"hot_above"`
	WarmAbove    float64       `yaml:"warm_above"`
	Hot          ClimateAction `yaml:"hot"`
	Warm         ClimateAction `yaml:"warm"`
	Cool         ClimateAction `yaml:"cool"`
}

// ClimateAction is the AC temperature and fan speed applied for a band.
// Zero means the device is switched off.
type ClimateAction struct {
	AC  int `yaml:"ac"`
	Fan int `yaml:"fan"`
}

// VoiceConfig controls the voice session loop.
type VoiceConfig struct {
	Enabled       bool     `yaml:"enabled"`
	WakePhrases   []string `yaml:"wake_phrases"`
	LeavePhrases  []string `yaml:"leave_phrases"`
	IdleTimeout   int      `yaml:"idle_timeout"`   // seconds
	ListenTimeout int      `yaml:"listen_timeout"` // seconds
	SpeechURL     string   `yaml:"speech_url"`
}

// AssistantConfig selects the text classifier and answer generator.
type AssistantConfig struct {
	Provider    string  `yaml:"provider"` // azure, keyword
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Deployment  string  `yaml:"deployment"`
	APIVersion  string  `yaml:"api_version"`
	Timeout     int     `yaml:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// VisionConfig points at the presence and face identity inference service.
type VisionConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// TelemetryConfig controls the periodic telemetry publisher.
type TelemetryConfig struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"` // seconds
}

// Load reads configuration from a YAML file and applies environment overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values
//  3. A .env file in the working directory, if present
//  4. Environment variables
//
// Environment variables follow the pattern SMARTAURA_SECTION_KEY, for example
// SMARTAURA_API_PORT. The Azure OpenAI variables AZURE_OPENAI_API_KEY,
// AZURE_OPENAI_DEPLOYMENT_ID and AZURE_ENDPOINT are also honoured.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads key=value pairs into the environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Default returns the built-in configuration. It is the configuration used
// when no file is given and is valid except for anything site-specific
// such as secrets.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "home-001",
			Name:     "SmartAura",
			Timezone: "Local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			CORS: CORSConfig{AllowedOrigins: []string{"*"}},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: SecurityConfig{
			JWT: JWTConfig{AccessTokenTTL: 60},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "smartaura-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "smartaura",
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "smartaura",
			Bucket:        "smartaura",
			BatchSize:     100,
			FlushInterval: 10,
		},
		ClickHouse: ClickHouseConfig{
			Host:        "localhost",
			Port:        9000,
			Database:    "smartaura",
			Username:    "default",
			DialTimeout: 5,
		},
		Database: DatabaseConfig{
			Path:        "./data/smartaura.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		EventLog: EventLogConfig{
			Backend:   "jsonl",
			Dir:       "./data/logs",
			ListLimit: 200,
		},
		Sensors: SensorsConfig{
			PollInterval:  10,
			Climate:       "simulated",
			Digital:       "simulated",
			ClimateTopic:  "sensors/dht22",
			ClimateMaxAge: 60,
		},
		GPIO: GPIOConfig{
			MotionPin:     "11", // BCM 17
			AirQualityPin: "12", // BCM 18
		},
		Devices: []DeviceConfig{
			{ID: "kitchen_light", Name: "Kitchen Light", Kind: "light", Aliases: []string{"kitchen", "light"}, Pin: "15"},
			{ID: "livingroom_ac", Name: "Living Room AC", Kind: "ac", Aliases: []string{"livingroom", "ac"}, Pin: "16"},
			{ID: "bedroom_fan", Name: "Bedroom Fan", Kind: "fan", Aliases: []string{"bedroom", "fan"}, Pin: "18"},
		},
		Automation: AutomationConfig{
			Enabled:           true,
			Interval:          2,
			ClassifierTimeout: 5,
			AlertInterval:     60,
			LightDevice:       "kitchen_light",
			ACDevice:          "livingroom_ac",
			FanDevice:         "bedroom_fan",
			Rules: RulesConfig{
				LightOnHour:  18,
				LightOffHour: 6,
				HotAbove:     28,
				WarmAbove:    24,
				Hot:          ClimateAction{AC: 22, Fan: 3},
				Warm:         ClimateAction{AC: 25, Fan: 2},
				Cool:         ClimateAction{AC: 0, Fan: 1},
			},
		},
		Voice: VoiceConfig{
			WakePhrases:   []string{"hey aura", "hello aura", "ok aura"},
			LeavePhrases:  []string{"i'm leaving", "i am leaving", "leaving now", "goodbye aura"},
			IdleTimeout:   30,
			ListenTimeout: 5,
		},
		Assistant: AssistantConfig{
			Provider:    "keyword",
			APIVersion:  "2024-05-01-preview",
			Timeout:     10,
			MaxTokens:   100,
			Temperature: 0.7,
		},
		Telemetry: TelemetryConfig{
			Interval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("SMARTAURA_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v, ok := envInt("SMARTAURA_API_PORT"); ok {
		cfg.API.Port = v
	}

	// Logging
	if v := os.Getenv("SMARTAURA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// MQTT
	if v := os.Getenv("SMARTAURA_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SMARTAURA_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SMARTAURA_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Sinks
	if v := os.Getenv("SMARTAURA_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("SMARTAURA_CLICKHOUSE_PASSWORD"); v != "" {
		cfg.ClickHouse.Password = v
	}

	// Storage
	if v := os.Getenv("SMARTAURA_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SMARTAURA_EVENTLOG_DIR"); v != "" {
		cfg.EventLog.Dir = v
	}

	// Security
	if v := os.Getenv("SMARTAURA_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	// Assistant, using the variable names of the Azure OpenAI tooling.
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("AZURE_OPENAI_DEPLOYMENT_ID"); v != "" {
		cfg.Assistant.Deployment = v
	}
	if v := os.Getenv("AZURE_ENDPOINT"); v != "" {
		cfg.Assistant.Endpoint = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is not a known zone", c.Site.Timezone))
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
		errs = append(errs, "api.tls requires cert_file and key_file")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	errs = append(errs, c.validateSecurity()...)
	errs = append(errs, c.validateSources()...)
	errs = append(errs, c.validateDevices()...)
	errs = append(errs, c.validateAutomation()...)

	if c.Voice.IdleTimeout <= 0 {
		errs = append(errs, "voice.idle_timeout must be positive")
	}
	if c.Voice.Enabled && len(c.Voice.WakePhrases) == 0 {
		errs = append(errs, "voice.wake_phrases must not be empty")
	}

	switch c.Assistant.Provider {
	case "keyword":
	case "azure":
		if c.Assistant.Endpoint == "" || c.Assistant.APIKey == "" || c.Assistant.Deployment == "" {
			errs = append(errs, "assistant provider azure requires endpoint, api_key and deployment (AZURE_ENDPOINT, AZURE_OPENAI_API_KEY, AZURE_OPENAI_DEPLOYMENT_ID)")
		}
	default:
		errs = append(errs, fmt.Sprintf("assistant.provider %q must be azure or keyword", c.Assistant.Provider))
	}
	if c.Assistant.Timeout <= 0 {
		errs = append(errs, "assistant.timeout must be positive")
	}

	if c.Vision.Enabled && c.Vision.URL == "" {
		errs = append(errs, "vision.url is required when vision is enabled")
	}

	switch c.EventLog.Backend {
	case "jsonl":
		if c.EventLog.Dir == "" {
			errs = append(errs, "eventlog.dir is required for the jsonl backend")
		}
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite event log")
		}
	default:
		errs = append(errs, fmt.Sprintf("eventlog.backend %q must be jsonl or sqlite", c.EventLog.Backend))
	}

	if c.Telemetry.Enabled && c.Telemetry.Interval <= 0 {
		errs = append(errs, "telemetry.interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSecurity() []string {
	if !c.Security.AuthEnabled {
		return nil
	}

	var errs []string
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required when auth is enabled (set SMARTAURA_JWT_SECRET)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}
	if len(c.Security.Users) == 0 {
		errs = append(errs, "security.users must contain at least one account when auth is enabled")
	}
	for i, u := range c.Security.Users {
		if u.Username == "" || u.PasswordHash == "" {
			errs = append(errs, fmt.Sprintf("security.users[%d] needs username and password_hash", i))
		}
		if u.Role != "admin" && u.Role != "guest" {
			errs = append(errs, fmt.Sprintf("security.users[%d].role %q must be admin or guest", i, u.Role))
		}
	}
	return errs
}

func (c *Config) validateSources() []string {
	var errs []string
	if c.Sensors.PollInterval <= 0 {
		errs = append(errs, "sensors.poll_interval must be positive")
	}
	switch c.Sensors.Climate {
	case "simulated", "none":
	case "mqtt":
		if !c.MQTT.Enabled {
			errs = append(errs, "sensors.climate mqtt requires mqtt.enabled")
		}
		if c.Sensors.ClimateTopic == "" {
			errs = append(errs, "sensors.climate_topic is required for the mqtt climate source")
		}
	default:
		errs = append(errs, fmt.Sprintf("sensors.climate %q must be simulated, mqtt or none", c.Sensors.Climate))
	}
	switch c.Sensors.Digital {
	case "simulated", "none":
	case "gpio":
		if !c.GPIO.Enabled {
			errs = append(errs, "sensors.digital gpio requires gpio.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("sensors.digital %q must be simulated, gpio or none", c.Sensors.Digital))
	}
	return errs
}

func (c *Config) validateDevices() []string {
	var errs []string
	if len(c.Devices) == 0 {
		return []string{"devices must declare at least one actuator"}
	}

	names := make(map[string]string)
	for i, d := range c.Devices {
		if d.ID == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].id is required", i))
			continue
		}
		switch d.Kind {
		case "light", "ac", "fan":
		default:
			errs = append(errs, fmt.Sprintf("devices[%d].kind %q must be light, ac or fan", i, d.Kind))
		}
		if c.GPIO.Enabled && d.Pin == "" {
			errs = append(errs, fmt.Sprintf("devices[%d].pin is required when gpio is enabled", i))
		}
		for _, name := range append([]string{d.ID}, d.Aliases...) {
			key := strings.ToLower(name)
			if owner, dup := names[key]; dup && owner != d.ID {
				errs = append(errs, fmt.Sprintf("device name %q is used by both %s and %s", name, owner, d.ID))
			}
			names[key] = d.ID
		}
	}
	return errs
}

func (c *Config) validateAutomation() []string {
	a := c.Automation
	var errs []string
	if a.Interval <= 0 {
		errs = append(errs, "automation.interval must be positive")
	}
	if a.ClassifierTimeout <= 0 {
		errs = append(errs, "automation.classifier_timeout must be positive")
	}
	if !a.Enabled {
		return errs
	}

	kinds := make(map[string]string, len(c.Devices))
	for _, d := range c.Devices {
		kinds[d.ID] = d.Kind
	}
	for field, want := range map[string][2]string{
		"light_device": {a.LightDevice, "light"},
		"ac_device":    {a.ACDevice, "ac"},
		"fan_device":   {a.FanDevice, "fan"},
	} {
		if kind, ok := kinds[want[0]]; !ok || kind != want[1] {
			errs = append(errs, fmt.Sprintf("automation.%s must name a declared %s device", field, want[1]))
		}
	}

	r := a.Rules
	if r.LightOnHour < 0 || r.LightOnHour > 23 || r.LightOffHour < 0 || r.LightOffHour > 23 {
		errs = append(errs, "automation.rules light hours must be between 0 and 23")
	}
	if r.WarmAbove >= r.HotAbove {
		errs = append(errs, "automation.rules.warm_above must be below hot_above")
	}
	for band, act := range map[string]ClimateAction{"hot": r.Hot, "warm": r.Warm, "cool": r.Cool} {
		if act.AC != 0 && (act.AC < 16 || act.AC > 32) {
			errs = append(errs, fmt.Sprintf("automation.rules.%s.ac must be 0 or between 16 and 32", band))
		}
		if act.Fan < 0 || act.Fan > 3 {
			errs = append(errs, fmt.Sprintf("automation.rules.%s.fan must be between 0 and 3", band))
		}
	}
	return errs
}

// Location returns the site time zone used for time-of-day rules.
func (c *Config) Location() (*time.Location, error) {
	switch c.Site.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Site.Timezone)
	}
}

// seconds converts an integer seconds setting to a Duration.
func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration { return seconds(c.API.Timeouts.Read) }

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration { return seconds(c.API.Timeouts.Write) }

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration { return seconds(c.API.Timeouts.Idle) }

// PollEvery returns the sensor poll interval.
func (s SensorsConfig) PollEvery() time.Duration { return seconds(s.PollInterval) }

// ClimateStaleAfter returns how long an MQTT climate reading stays valid.
func (s SensorsConfig) ClimateStaleAfter() time.Duration { return seconds(s.ClimateMaxAge) }

// CycleEvery returns the automation cycle interval.
func (a AutomationConfig) CycleEvery() time.Duration { return seconds(a.Interval) }

// ClassifierDeadline returns the bound on each presence or identity call.
func (a AutomationConfig) ClassifierDeadline() time.Duration { return seconds(a.ClassifierTimeout) }

// AlertEvery returns the minimum spacing of unknown-occupant alerts.
func (a AutomationConfig) AlertEvery() time.Duration { return seconds(a.AlertInterval) }

// IdleAfter returns the voice session inactivity timeout.
func (v VoiceConfig) IdleAfter() time.Duration { return seconds(v.IdleTimeout) }

// ListenFor returns the bound on each speech-to-text call.
func (v VoiceConfig) ListenFor() time.Duration { return seconds(v.ListenTimeout) }

// RequestTimeout returns the bound on each assistant classifier call.
func (a AssistantConfig) RequestTimeout() time.Duration { return seconds(a.Timeout) }

// PublishEvery returns the telemetry publish interval.
func (t TelemetryConfig) PublishEvery() time.Duration { return seconds(t.Interval) }

// AccessTokenLifetime returns the JWT access token TTL.
func (j JWTConfig) AccessTokenLifetime() time.Duration {
	return time.Duration(j.AccessTokenTTL) * time.Minute
}
