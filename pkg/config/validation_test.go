package config

import (
	"strings"
	"testing"

	"github.com/kanbu/kanbu-acl/pkg/controlplane/store"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("Expected error for nil config")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "INVALID" }, "oneof"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"api port out of range", func(c *Config) { c.ControlPlane.Port = 70000 }, "max"},
		{"negative api port", func(c *Config) { c.ControlPlane.Port = -1 }, "min"},
		{"metrics port out of range", func(c *Config) { c.Metrics.Port = 65536 }, "max"},
		{"sample rate above one", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "lte"},
		{"negative shutdown timeout", func(c *Config) { c.ShutdownTimeout = -1 }, "gt"},
		{"short jwt secret", func(c *Config) { c.ControlPlane.JWT.Secret = "short" }, "at least 32"},
		{"unknown database type", func(c *Config) { c.Database.Type = store.DatabaseType("mysql") }, "unsupported database type"},
		{"postgres without host", func(c *Config) {
			c.Database.Type = store.DatabaseTypePostgres
			c.Database.Postgres.Database = "acl"
			c.Database.Postgres.User = "kanbu"
		}, "host is required"},
		{"unknown profile type", func(c *Config) {
			c.Telemetry.Profiling.Enabled = true
			c.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heap"}
		}, "heap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestValidate_EmptySecretAllowed(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.ControlPlane.JWT.Secret = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected empty secret to be accepted, got: %v", err)
	}
}
