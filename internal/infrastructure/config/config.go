package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minControlPeriod is the shortest non-zero control.period accepted.
const minControlPeriod = time.Second

// Config is the root configuration structure for Gray Logic Thermal.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Device    DeviceConfig    `yaml:"device"`
	Control   ControlConfig   `yaml:"control"`
	Watchdog  WatchdogConfig  `yaml:"watchdog"`
	Poller    PollerConfig    `yaml:"poller"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DeviceConfig contains the fan controller's HTTP settings.
type DeviceConfig struct {
	BaseURL string            `yaml:"base_url"`
	Paths   DevicePathsConfig `yaml:"paths"`

	// CommandTimeout bounds each on/off attempt. Must be shorter than PollTimeout.
	CommandTimeout time.Duration `yaml:"command_timeout"`

	// PollTimeout bounds each temperature and watchdog attempt.
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// CommandRetries is the retry budget of on/off commands.
	CommandRetries int `yaml:"command_retries"`

	// RetryWait is the pause between attempts of one request.
	RetryWait time.Duration `yaml:"retry_wait"`
}

// DevicePathsConfig contains the controller's URL paths. Empty paths use
// the controller defaults.
type DevicePathsConfig struct {
	Temperature    string `yaml:"temperature"`
	On             string `yaml:"on"`
	Off            string `yaml:"off"`
	WatchdogEnable string `yaml:"watchdog_enable"`
	WatchdogReset  string `yaml:"watchdog_reset"`
	WatchdogStatus string `yaml:"watchdog_status"`
}

// ControlConfig contains the initial PID parameters.
type ControlConfig struct {
	Gain                float64 `yaml:"gain"`
	Kp                  float64 `yaml:"kp"`
	Ki                  float64 `yaml:"ki"`
	Kd                  float64 `yaml:"kd"`
	MinOutputPercentage float64 `yaml:"min_output_percentage"`

	// Period is the loop period. Zero leaves it unset; the loop will not start.
	Period time.Duration `yaml:"period"`

	// Setpoint is optional; nil leaves it unset.
	Setpoint *float64 `yaml:"setpoint"`

	// AutoStart starts the loop at boot when setpoint and period are set.
	AutoStart bool `yaml:"auto_start"`
}

// WatchdogConfig contains the watchdog feeder settings.
type WatchdogConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Retries  int           `yaml:"retries"`
}

// PollerConfig contains the temperature poller settings.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval"`
	Retries  int           `yaml:"retries"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYTHERMAL_SECTION_KEY
// For example: GRAYTHERMAL_DEVICE_BASE_URL, GRAYTHERMAL_CONTROL_SETPOINT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic Thermal",
		},
		Device: DeviceConfig{
			CommandTimeout: 2 * time.Second,
			PollTimeout:    5 * time.Second,
			CommandRetries: 1,
			RetryWait:      250 * time.Millisecond,
		},
		Control: ControlConfig{
			Gain:                1,
			MinOutputPercentage: 5,
		},
		Watchdog: WatchdogConfig{
			Enabled:  true,
			Interval: 10 * time.Second,
			Retries:  5,
		},
		Poller: PollerConfig{
			Interval: 5 * time.Second,
			Retries:  1,
		},
		Database: DatabaseConfig{
			Path:        "./data/graythermal.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graythermal",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYTHERMAL_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Device
	if v := os.Getenv("GRAYTHERMAL_DEVICE_BASE_URL"); v != "" {
		cfg.Device.BaseURL = v
	}

	// Control
	if v := os.Getenv("GRAYTHERMAL_CONTROL_SETPOINT"); v != "" {
		sp, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GRAYTHERMAL_CONTROL_SETPOINT: %w", err)
		}
		cfg.Control.Setpoint = &sp
	}
	if v := os.Getenv("GRAYTHERMAL_CONTROL_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GRAYTHERMAL_CONTROL_PERIOD: %w", err)
		}
		cfg.Control.Period = d
	}

	// Database
	if v := os.Getenv("GRAYTHERMAL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYTHERMAL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYTHERMAL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYTHERMAL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYTHERMAL_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYTHERMAL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("GRAYTHERMAL_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Site validation
	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Device validation
	if c.Device.BaseURL == "" {
		errs = append(errs, "device.base_url is required (set GRAYTHERMAL_DEVICE_BASE_URL environment variable)")
	}
	if c.Device.CommandTimeout <= 0 {
		errs = append(errs, "device.command_timeout must be positive")
	}
	if c.Device.PollTimeout <= 0 {
		errs = append(errs, "device.poll_timeout must be positive")
	}
	// Commands must resolve well inside one poll cycle.
	if c.Device.CommandTimeout >= c.Device.PollTimeout {
		errs = append(errs, "device.command_timeout must be shorter than device.poll_timeout")
	}
	if c.Device.CommandRetries < 0 {
		errs = append(errs, "device.command_retries must not be negative")
	}
	if c.Device.RetryWait < 0 {
		errs = append(errs, "device.retry_wait must not be negative")
	}

	// Control validation
	if c.Control.MinOutputPercentage < 0 || c.Control.MinOutputPercentage > 100 {
		errs = append(errs, "control.min_output_percentage must be between 0 and 100")
	}
	if c.Control.Period < 0 {
		errs = append(errs, "control.period must not be negative")
	} else if c.Control.Period > 0 && c.Control.Period < minControlPeriod {
		errs = append(errs, fmt.Sprintf("control.period must be 0 or at least %v", minControlPeriod))
	}

	// Watchdog and poller validation
	if c.Watchdog.Enabled && c.Watchdog.Interval <= 0 {
		errs = append(errs, "watchdog.interval must be positive")
	}
	if c.Watchdog.Retries < 0 {
		errs = append(errs, "watchdog.retries must not be negative")
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, "poller.interval must be positive")
	}
	if c.Poller.Retries < 0 {
		errs = append(errs, "poller.retries must not be negative")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) WriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) IdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
