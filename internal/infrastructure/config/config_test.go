package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
mqtt:
  enabled: true
  broker:
    host: "broker.lan"
rf:
  refresh_interval: 10s
  gateways:
    - id: garage
      sockets:
        - id: socket-bench
          port: 1
          caption: Bench
          on:  [{value: 5510485, length: 24, protocol: 1}]
          off: [{value: 5510484, length: 24, protocol: 1}]
areas:
  - id: garage
    caption: Garage
    actuators: [socket-bench]
automations:
  - id: bench-evening
    kind: TimeWindow
    from: "18:00"
    until: "23:30"
    targets: [socket-bench]
    period: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.MQTT.Broker.Host != "broker.lan" {
		t.Errorf("MQTT.Broker.Host = %q", cfg.MQTT.Broker.Host)
	}
	// Untouched defaults survive.
	if cfg.MQTT.Broker.Port != 1883 || cfg.API.Port != 8080 {
		t.Errorf("defaults lost: mqtt port %d, api port %d", cfg.MQTT.Broker.Port, cfg.API.Port)
	}
	if cfg.RF.RefreshInterval != 10*time.Second {
		t.Errorf("RF.RefreshInterval = %v, want 10s", cfg.RF.RefreshInterval)
	}
	if len(cfg.RF.Gateways) != 1 || len(cfg.RF.Gateways[0].Sockets) != 1 {
		t.Fatalf("RF.Gateways = %+v", cfg.RF.Gateways)
	}
	if got := cfg.RF.Gateways[0].Sockets[0].On[0].Value; got != 5510485 {
		t.Errorf("on code = %d", got)
	}
	if len(cfg.Automations) != 1 || cfg.Automations[0].Period != 30*time.Second {
		t.Errorf("Automations = %+v", cfg.Automations)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GRAYLOGIC_DATABASE_PATH", "/var/lib/graylogic/env.db")
	t.Setenv("GRAYLOGIC_API_PORT", "9090")
	t.Setenv("GRAYLOGIC_JWT_SECRET", strings.Repeat("s", 40))
	t.Setenv("GRAYLOGIC_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "site:\n  id: env-site\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/var/lib/graylogic/env.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_BadPortEnv(t *testing.T) {
	t.Setenv("GRAYLOGIC_API_PORT", "eighty")
	if _, err := Load(writeConfig(t, "site:\n  id: x\n")); err == nil {
		t.Error("Load() expected error for non-numeric GRAYLOGIC_API_PORT")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty site id", func(c *Config) { c.Site.ID = "" }, "site.id"},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"negative journal retention", func(c *Config) { c.Database.JournalRetention = -time.Hour }, "database.journal_retention"},
		{"users without secret", func(c *Config) {
			c.Security.JWT.Secret = ""
			c.Security.Users = []UserConfig{{Username: "admin", PasswordHash: "$argon2id$x"}}
		}, "security.users require"},
		{"user without hash", func(c *Config) {
			c.Security.JWT.Secret = strings.Repeat("s", 32)
			c.Security.Users = []UserConfig{{Username: "admin"}}
		}, "needs username and password_hash"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"bad port", func(c *Config) { c.API.Port = 70000 }, "api.port"},
		{"ephemeral port", func(c *Config) { c.API.Port = 0 }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"no jwt secret", func(c *Config) { c.Security.JWT.Secret = "" }, ""},
		{"short jwt secret", func(c *Config) { c.Security.JWT.Secret = "short" }, "security.jwt.secret"},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }, "influxdb.url"},
		{"rf without mqtt", func(c *Config) {
			c.RF.Gateways = []RFGatewayConfig{{ID: "gw"}}
		}, "mqtt.enabled"},
		{"zero refresh", func(c *Config) { c.RF.RefreshInterval = 0 }, "rf.refresh_interval"},
		{"duplicate gateway", func(c *Config) {
			c.MQTT.Enabled = true
			c.RF.Gateways = []RFGatewayConfig{{ID: "gw"}, {ID: "gw"}}
		}, "duplicated"},
		{"socket without codes", func(c *Config) {
			c.MQTT.Enabled = true
			c.RF.Gateways = []RFGatewayConfig{{ID: "gw", Sockets: []RFSocketConfig{{ID: "s", Port: 1}}}}
		}, "needs on and off codes"},
		{"negative socket port", func(c *Config) {
			c.MQTT.Enabled = true
			code := []RFCodeConfig{{Value: 1, Length: 24, Protocol: 1}}
			c.RF.Gateways = []RFGatewayConfig{{ID: "gw", Sockets: []RFSocketConfig{{ID: "s", Port: -1, On: code, Off: code}}}}
		}, "port must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Validate() error = %v, want nil", err)
			case tt.wantErr != "" && err == nil:
				t.Errorf("Validate() error = nil, want %q", tt.wantErr)
			case tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr):
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Site.ID = ""
	cfg.Database.Path = ""
	cfg.MQTT.QoS = 9

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	for _, want := range []string{"site.id", "database.path", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := Default()
	if cfg.GetReadTimeout() != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v", cfg.GetReadTimeout())
	}
	if cfg.GetWriteTimeout() != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v", cfg.GetWriteTimeout())
	}
	if cfg.GetIdleTimeout() != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v", cfg.GetIdleTimeout())
	}
}
