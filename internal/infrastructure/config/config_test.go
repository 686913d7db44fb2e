package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "mbconv.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
converter:
  script_glob: "bus*.lua"
  serial_resource: "RS485-2"
  write_bom: false
database:
  enabled: true
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Converter.ScriptGlob != "bus*.lua" {
		t.Errorf("Converter.ScriptGlob = %q, want %q", cfg.Converter.ScriptGlob, "bus*.lua")
	}
	if cfg.Converter.SerialResource != "RS485-2" {
		t.Errorf("Converter.SerialResource = %q, want %q", cfg.Converter.SerialResource, "RS485-2")
	}
	if cfg.Converter.WriteBOM {
		t.Error("Converter.WriteBOM = true, want false")
	}
	// Keys absent from the file keep their defaults.
	if cfg.Converter.TCPListen != "0.0.0.0:502" {
		t.Errorf("Converter.TCPListen = %q, want default", cfg.Converter.TCPListen)
	}
	if cfg.Converter.MaxDocumentSize != 1024*1024 {
		t.Errorf("Converter.MaxDocumentSize = %d, want 1MiB", cfg.Converter.MaxDocumentSize)
	}

	if !cfg.Database.Enabled || cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Enabled || cfg.MQTT.Enabled || cfg.InfluxDB.Enabled {
		t.Error("sinks enabled by default")
	}
	if !cfg.Converter.WriteBOM {
		t.Error("WriteBOM should default to true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/mbconv.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
converter:
  script_glob: ""
api:
  port: 0
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error, got nil")
	}
}

func TestLoad_InvalidPortOverride(t *testing.T) {
	t.Setenv("MBCONV_API_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for non-numeric MBCONV_API_PORT, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "non-positive document size",
			mutate:  func(c *Config) { c.Converter.MaxDocumentSize = 0 },
			wantErr: true,
		},
		{
			name:    "missing tcp listen",
			mutate:  func(c *Config) { c.Converter.TCPListen = "" },
			wantErr: true,
		},
		{
			name:    "history enabled without path",
			mutate:  func(c *Config) { c.Database.Enabled = true; c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "history disabled without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: false,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "mqtt enabled without host",
			mutate:  func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker.Host = "" },
			wantErr: true,
		},
		{
			name:    "invalid port low",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without bucket",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true; c.InfluxDB.URL = "http://localhost:8086" },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIConfig_Timeouts(t *testing.T) {
	cfg := APIConfig{
		Timeouts: APITimeoutConfig{
			Read:  30,
			Write: 45,
			Idle:  60,
		},
	}

	if got := cfg.ReadTimeout().Seconds(); got != 30 {
		t.Errorf("ReadTimeout() = %v, want 30", got)
	}

	if got := cfg.WriteTimeout().Seconds(); got != 45 {
		t.Errorf("WriteTimeout() = %v, want 45", got)
	}

	if got := cfg.IdleTimeout().Seconds(); got != 60 {
		t.Errorf("IdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("MBCONV_SCRIPT_GLOB", "fc*.lua")
	t.Setenv("MBCONV_SERIAL_RESOURCE", "RS485-3")
	t.Setenv("MBCONV_DATABASE_PATH", "/custom/path.db")
	t.Setenv("MBCONV_MQTT_HOST", "mqtt.example.com")
	t.Setenv("MBCONV_MQTT_USERNAME", "testuser")
	t.Setenv("MBCONV_MQTT_PASSWORD", "testpass")
	t.Setenv("MBCONV_API_HOST", "192.168.1.1")
	t.Setenv("MBCONV_API_PORT", "9090")
	t.Setenv("MBCONV_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("MBCONV_LOG_LEVEL", "debug")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Converter.ScriptGlob != "fc*.lua" {
		t.Errorf("Converter.ScriptGlob = %q, want %q", cfg.Converter.ScriptGlob, "fc*.lua")
	}
	if cfg.Converter.SerialResource != "RS485-3" {
		t.Errorf("Converter.SerialResource = %q, want %q", cfg.Converter.SerialResource, "RS485-3")
	}
	if cfg.Database.Path != "/custom/path.db" || !cfg.Database.Enabled {
		t.Errorf("Database = %+v, want enabled at /custom/path.db", cfg.Database)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v", cfg.MQTT.Auth)
	}
	if cfg.API.Host != "192.168.1.1" || cfg.API.Port != 9090 {
		t.Errorf("API = %s:%d, want 192.168.1.1:9090", cfg.API.Host, cfg.API.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Converter.SerialResource != "RS485-1" {
		t.Errorf("Default Converter.SerialResource = %q, want RS485-1", cfg.Converter.SerialResource)
	}
	if cfg.Database.Path == "" {
		t.Error("Default should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8085 {
		t.Errorf("Default API.Port = %d, want 8085", cfg.API.Port)
	}
}
