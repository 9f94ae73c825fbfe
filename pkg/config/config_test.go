package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kanbu/kanbu-acl/pkg/controlplane/store"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_AppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, `
logging:
  level: "info"

database:
  type: sqlite
  sqlite:
    path: "`+yamlSafePath(tmpDir)+`/acl.db"

controlplane:
  port: 8081
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level normalized to 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.ControlPlane.Port != 8081 {
		t.Errorf("Expected control plane port 8081, got %d", cfg.ControlPlane.Port)
	}
	if cfg.ControlPlane.JWT.AccessTokenDuration != 15*time.Minute {
		t.Errorf("Expected default access token duration 15m, got %v", cfg.ControlPlane.JWT.AccessTokenDuration)
	}
	if cfg.Telemetry.ServiceName != "kanbu-acl" {
		t.Errorf("Expected default service name 'kanbu-acl', got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_Durations(t *testing.T) {
	configPath := writeConfig(t, `
shutdown_timeout: 45s
controlplane:
  read_timeout: 2m
  jwt:
    access_token_duration: 1h
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ShutdownTimeout != 45*time.Second {
		t.Errorf("Expected shutdown_timeout 45s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.ControlPlane.ReadTimeout != 2*time.Minute {
		t.Errorf("Expected read_timeout 2m, got %v", cfg.ControlPlane.ReadTimeout)
	}
	if cfg.ControlPlane.JWT.AccessTokenDuration != time.Hour {
		t.Errorf("Expected access_token_duration 1h, got %v", cfg.ControlPlane.JWT.AccessTokenDuration)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
metrics:
  port: 9100
`)
	t.Setenv("KANBU_ACL_LOGGING_LEVEL", "debug")
	t.Setenv("KANBU_ACL_METRICS_PORT", "9200")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env override 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Metrics.Port != 9200 {
		t.Errorf("Expected env override port 9200, got %d", cfg.Metrics.Port)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.ControlPlane.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.ControlPlane.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  format: xml
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := MustLoad(missing)
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "kanbu-acl init --config") {
		t.Errorf("Expected init instructions in error, got: %v", err)
	}
}

func TestMustLoad_MissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := MustLoad("")
	if err == nil {
		t.Fatal("Expected error when default config is missing")
	}
	if !strings.Contains(err.Error(), "kanbu-acl init") {
		t.Errorf("Expected init instructions in error, got: %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Database.SQLite.Path = filepath.Join(tmpDir, "acl.db")
	cfg.Logging.Level = "WARN"
	cfg.ControlPlane.Port = 9000

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat saved config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected file mode 0600, got %o", perm)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", loaded.Logging.Level)
	}
	if loaded.ControlPlane.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", loaded.ControlPlane.Port)
	}
	if loaded.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected shutdown timeout 30s after round trip, got %v", loaded.ShutdownTimeout)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Database.Type != store.DatabaseTypeSQLite {
		t.Errorf("Expected default database type sqlite, got %q", cfg.Database.Type)
	}
	if cfg.Database.SQLite.Path == "" {
		t.Error("Expected default sqlite path to be set")
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics to be disabled by default")
	}
	if !cfg.Telemetry.Insecure {
		t.Error("Expected insecure OTLP transport by default")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if got, want := GetConfigDir(), filepath.Join(tmpDir, "kanbu-acl"); got != want {
		t.Errorf("GetConfigDir() = %q, want %q", got, want)
	}
	if got, want := GetDefaultConfigPath(), filepath.Join(tmpDir, "kanbu-acl", "config.yaml"); got != want {
		t.Errorf("GetDefaultConfigPath() = %q, want %q", got, want)
	}
	if DefaultConfigExists() {
		t.Error("Expected no default config in fresh directory")
	}
}
