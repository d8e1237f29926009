package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":8869" || cfg.Database.Driver != "sqlite" || cfg.Database.DSN != defaultSQLitePath {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.Upload.MaxBytes != 50<<20 || cfg.Redis.TTLSeconds != 300 || cfg.MQTT.TopicPrefix != "badmodems" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9000"
logging:
  level: debug
database:
  driver: MySQL
  mysql:
    host: db.local
    user: modems
    pass: secret
    dbname: bad_modems
redis:
  enabled: true
  addr: localhost:6379
mqtt:
  enabled: true
  host: broker.local
  qos: 1
  retain: true
upload:
  max_bytes: 1048576
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Logging.Level != "debug" || cfg.Database.Driver != "mysql" {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Database.MySQL.Port != 3306 || cfg.MQTT.Port != 1883 || cfg.MQTT.QoS != 1 || !cfg.MQTT.Retain {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.Upload.MaxBytes != 1<<20 {
		t.Fatalf("max bytes %d", cfg.Upload.MaxBytes)
	}
	want := "modems:secret@tcp(db.local:3306)/bad_modems?charset=utf8mb4&parseTime=True&loc=UTC"
	if got := cfg.Database.MySQL.dsn(); got != want {
		t.Fatalf("dsn %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"driver", func(c *Config) { c.Database.Driver = "postgres" }, "database.driver"},
		{"mysql host", func(c *Config) { c.Database.Driver = "mysql"; c.Database.DSN = "" }, "database.mysql.host"},
		{"redis addr", func(c *Config) { c.Redis.Enabled = true }, "redis.addr"},
		{"mqtt host", func(c *Config) { c.MQTT.Enabled = true }, "mqtt.host"},
		{"mqtt qos", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Host = "b"; c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"upload", func(c *Config) { c.Upload.MaxBytes = -1 }, "upload.max_bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.applyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
