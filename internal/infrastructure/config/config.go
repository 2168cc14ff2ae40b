package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential sources recorded in MijiaConfig.Source.
const (
	SourceFile = "file"
	SourceEnv  = "env"
)

// Auth store backends.
const (
	AuthStoreDatabase = "database"
	AuthStoreFile     = "file"
)

// Server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
	TransportBoth  = "both"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// Config is the root configuration structure for miot-agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Mijia    MijiaConfig    `yaml:"mijia"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MijiaConfig holds the Mijia account credentials and session handling.
type MijiaConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	EnableQR bool   `yaml:"enableQR"`

	// AutoConnect connects to the cloud at startup instead of waiting
	// for the connect tool.
	AutoConnect bool `yaml:"auto_connect"`

	// AuthStore selects where session credentials are cached: "database" or "file".
	AuthStore string `yaml:"auth_store"`
	AuthFile  string `yaml:"auth_file"`

	// Source is where the credentials came from: SourceFile or SourceEnv.
	Source string `yaml:"-"`
}

// HasCredentials reports whether the section is usable on its own:
// QR login is enabled, or both username and password are set.
func (m MijiaConfig) HasCredentials() bool {
	return m.EnableQR || (m.Username != "" && m.Password != "")
}

// ServerConfig selects the tool-serving transports.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings and the MIoT bridge
// request/response addressing.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	TopicPrefix    string `yaml:"topic_prefix"`
	BridgeID       string `yaml:"bridge_id"`
	RequestTimeout int    `yaml:"request_timeout"`
	LoginTimeout   int    `yaml:"login_timeout"`
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
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
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
//  2. YAML file values (override defaults); a missing file is skipped
//  3. Mijia credentials from MIJIA_* when the file's mijia section is incomplete
//  4. MIOT_* environment variables (override file values)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Environment-only deployment.
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	resolveCredentials(&cfg.Mijia)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Mijia: MijiaConfig{
			AuthStore: AuthStoreDatabase,
			AuthFile:  "auth_data.json",
		},
		Server: ServerConfig{
			Name:      "miot-agent",
			Transport: TransportStdio,
		},
		Database: DatabaseConfig{
			Path:        "./data/miot-agent.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "miot-agent",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			TopicPrefix:    "miot",
			BridgeID:       "cloud",
			RequestTimeout: 10,
			LoginTimeout:   180,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// resolveCredentials keeps the file's credentials when they are complete and
// otherwise replaces all three fields with the MIJIA_* environment. The two
// sources are never mixed.
func resolveCredentials(m *MijiaConfig) {
	if m.HasCredentials() {
		m.Source = SourceFile
		return
	}

	m.Username = os.Getenv("MIJIA_USERNAME")
	m.Password = os.Getenv("MIJIA_PASSWORD")
	m.EnableQR = strings.EqualFold(os.Getenv("MIJIA_ENABLEQR"), "true")
	m.Source = SourceEnv
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MIOT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MIOT_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("MIOT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MIOT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MIOT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("MIOT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("MIOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("MIOT_SERVER_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !c.Mijia.HasCredentials() {
		errs = append(errs, "mijia credentials are required: set mijia.username and mijia.password, "+
			"enable mijia.enableQR, or set MIJIA_USERNAME, MIJIA_PASSWORD, MIJIA_ENABLEQR")
	}
	switch c.Mijia.AuthStore {
	case AuthStoreDatabase:
	case AuthStoreFile:
		if c.Mijia.AuthFile == "" {
			errs = append(errs, "mijia.auth_file is required when mijia.auth_store is \"file\"")
		}
	default:
		errs = append(errs, "mijia.auth_store must be \"database\" or \"file\"")
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP, TransportBoth:
	default:
		errs = append(errs, "server.transport must be stdio, http, or both")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}
	if c.MQTT.BridgeID == "" {
		errs = append(errs, "mqtt.bridge_id is required")
	}
	if c.MQTT.RequestTimeout <= 0 {
		errs = append(errs, "mqtt.request_timeout must be positive")
	}

	if c.Server.Transport != TransportStdio && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Save writes cfg as YAML to path, creating parent directories. The file
// holds credentials and is written owner-only.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// HTTPEnabled reports whether the HTTP tool API should be served.
func (c *Config) HTTPEnabled() bool {
	return c.Server.Transport == TransportHTTP || c.Server.Transport == TransportBoth
}

// StdioEnabled reports whether the MCP stdio server should be served.
func (c *Config) StdioEnabled() bool {
	return c.Server.Transport == TransportStdio || c.Server.Transport == TransportBoth
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetRequestTimeout returns the bridge request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.MQTT.RequestTimeout) * time.Second
}

// GetLoginTimeout returns how long an interactive QR login may wait.
func (c *Config) GetLoginTimeout() time.Duration {
	if c.MQTT.LoginTimeout <= 0 {
		return c.GetRequestTimeout()
	}
	return time.Duration(c.MQTT.LoginTimeout) * time.Second
}
