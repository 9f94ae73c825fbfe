package config

import (
	"encoding/json"
	"testing"
)

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema failed: %v", err)
	}

	var schema struct {
		Title      string                     `json:"title"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("Schema is not valid JSON: %v", err)
	}

	if schema.Title != "kanbu-acl Configuration" {
		t.Errorf("Unexpected title %q", schema.Title)
	}
	for _, key := range []string{"logging", "telemetry", "metrics", "database", "controlplane", "shutdown_timeout"} {
		if _, ok := schema.Properties[key]; !ok {
			t.Errorf("Schema missing property %q", key)
		}
	}
}

func TestInitializeMetrics(t *testing.T) {
	cfg := GetDefaultConfig()

	if res := InitializeMetrics(cfg); res.Registry != nil || res.Server != nil {
		t.Error("Expected nothing initialized when metrics are disabled")
	}

	cfg.Metrics.Enabled = true
	res := InitializeMetrics(cfg)
	if res.Registry == nil || res.Server == nil {
		t.Fatal("Expected registry and server when metrics are enabled")
	}
}
