package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration of the controller.
type Config struct {
	Site        SiteConfig         `yaml:"site"`
	Database    DatabaseConfig     `yaml:"database"`
	MQTT        MQTTConfig         `yaml:"mqtt"`
	API         APIConfig          `yaml:"api"`
	WebSocket   WebSocketConfig    `yaml:"websocket"`
	InfluxDB    InfluxDBConfig     `yaml:"influxdb"`
	Logging     LoggingConfig      `yaml:"logging"`
	Security    SecurityConfig     `yaml:"security"`
	Discovery   DiscoveryConfig    `yaml:"discovery"`
	RF          RFConfig           `yaml:"rf"`
	Areas       []AreaConfig       `yaml:"areas"`
	Automations []AutomationConfig `yaml:"automations"`
}

// SiteConfig identifies the installation.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains the SQLite settings store options.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// JournalRetention is how long audit events are kept. Zero keeps them forever.
	JournalRetention time.Duration `yaml:"journal_retention"`
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

// MQTTReconnectConfig contains reconnect backoff bounds in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	Timeouts     APITimeoutConfig `yaml:"timeouts"`
	CORS         CORSConfig       `yaml:"cors"`
	MaxBodyBytes int64            `yaml:"max_body_bytes"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains event hub settings.
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
	// BufferSize is how many recent records GET /api/v1/log returns.
	BufferSize int `yaml:"buffer_size"`
}

// SecurityConfig contains API security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
	// Users may exchange a password for a token at POST /api/v1/auth/token.
	Users []UserConfig `yaml:"users"`
	// TokenTTL is the lifetime of tokens issued at login.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// UserConfig is one operator login. PasswordHash is an Argon2id PHC string.
type UserConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// JWTConfig configures bearer authentication of mutating API requests.
// An empty secret leaves the API open, which suits a closed LAN only.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// DiscoveryConfig controls mDNS advertisement of the API.
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Service  string `yaml:"service"`
	Domain   string `yaml:"domain"`
}

// RFConfig describes the 433 MHz gateways and the sockets behind them.
type RFConfig struct {
	RefreshInterval time.Duration     `yaml:"refresh_interval"`
	Gateways        []RFGatewayConfig `yaml:"gateways"`
}

// RFGatewayConfig is one RF transmitter reachable over MQTT.
type RFGatewayConfig struct {
	ID      string           `yaml:"id"`
	Sockets []RFSocketConfig `yaml:"sockets"`
}

// RFSocketConfig is one remote socket on a gateway.
type RFSocketConfig struct {
	ID      string         `yaml:"id"`
	Port    int            `yaml:"port"`
	Caption string         `yaml:"caption"`
	On      []RFCodeConfig `yaml:"on"`
	Off     []RFCodeConfig `yaml:"off"`
	Repeats int            `yaml:"repeats"`
}

// RFCodeConfig is one code word.
type RFCodeConfig struct {
	Value    uint32 `yaml:"value"`
	Length   uint8  `yaml:"length"`
	Protocol uint8  `yaml:"protocol"`
}

// AreaConfig is a room or zone grouping actuators.
type AreaConfig struct {
	ID        string   `yaml:"id"`
	Caption   string   `yaml:"caption"`
	SortValue int      `yaml:"sort_value"`
	Actuators []string `yaml:"actuators"`
}

// AutomationConfig is one automation. Only kind "TimeWindow" exists today.
type AutomationConfig struct {
	ID      string        `yaml:"id"`
	Kind    string        `yaml:"kind"`
	From    string        `yaml:"from"`
	Until   string        `yaml:"until"`
	Targets []string      `yaml:"targets"`
	Period  time.Duration `yaml:"period"`
}

// Load reads configuration from a YAML file, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Gray Logic",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:             "./data/graylogic.db",
			WALMode:          true,
			BusyTimeout:      5,
			JournalRetention: 30 * 24 * time.Hour,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-controller",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			MaxBodyBytes: 1 << 20,
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
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			BufferSize: 500,
		},
		Security: SecurityConfig{
			JWT:      JWTConfig{Issuer: "graylogic"},
			TokenTTL: 24 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			Service: "_graylogic._tcp",
			Domain:  "local.",
		},
		RF: RFConfig{
			RefreshInterval: 5 * time.Second,
		},
	}
}

// applyEnvOverrides applies GRAYLOGIC_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"GRAYLOGIC_DATABASE_PATH", &cfg.Database.Path},
		{"GRAYLOGIC_MQTT_HOST", &cfg.MQTT.Broker.Host},
		{"GRAYLOGIC_MQTT_USERNAME", &cfg.MQTT.Auth.Username},
		{"GRAYLOGIC_MQTT_PASSWORD", &cfg.MQTT.Auth.Password},
		{"GRAYLOGIC_API_HOST", &cfg.API.Host},
		{"GRAYLOGIC_INFLUXDB_TOKEN", &cfg.InfluxDB.Token},
		{"GRAYLOGIC_JWT_SECRET", &cfg.Security.JWT.Secret},
		{"GRAYLOGIC_LOG_LEVEL", &cfg.Logging.Level},
	}
	for _, s := range strs {
		if v := os.Getenv(s.name); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv("GRAYLOGIC_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing GRAYLOGIC_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.JournalRetention < 0 {
		errs = append(errs, "database.journal_retention must not be negative")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	// Port 0 asks the OS for a free port.
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 0 and 65535")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	// A short secret lets anyone brute-force tokens for mains switching.
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(c.Security.Users) > 0 && c.Security.JWT.Secret == "" {
		errs = append(errs, "security.users require security.jwt.secret")
	}
	for i, u := range c.Security.Users {
		if u.Username == "" || u.PasswordHash == "" {
			errs = append(errs, fmt.Sprintf("security.users[%d] needs username and password_hash", i))
		}
	}
	if c.Security.TokenTTL < 0 {
		errs = append(errs, "security.token_ttl must not be negative")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}
	if len(c.RF.Gateways) > 0 && !c.MQTT.Enabled {
		errs = append(errs, "rf.gateways require mqtt.enabled")
	}
	if c.RF.RefreshInterval <= 0 {
		errs = append(errs, "rf.refresh_interval must be positive")
	}

	errs = append(errs, c.validateRF()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateRF() []string {
	var errs []string
	gateways := make(map[string]bool)
	for i, gw := range c.RF.Gateways {
		if gw.ID == "" {
			errs = append(errs, fmt.Sprintf("rf.gateways[%d].id is required", i))
		} else if gateways[gw.ID] {
			errs = append(errs, fmt.Sprintf("rf.gateways[%d].id %q is duplicated", i, gw.ID))
		}
		gateways[gw.ID] = true

		for j, s := range gw.Sockets {
			where := fmt.Sprintf("rf.gateways[%d].sockets[%d]", i, j)
			if s.ID == "" {
				errs = append(errs, where+".id is required")
			}
			if s.Port < 0 {
				errs = append(errs, where+".port must not be negative")
			}
			if len(s.On) == 0 || len(s.Off) == 0 {
				errs = append(errs, where+" needs on and off codes")
			}
		}
	}
	return errs
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
