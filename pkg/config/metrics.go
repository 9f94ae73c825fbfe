package config

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kanbu/kanbu-acl/pkg/metrics"
)

// MetricsResult holds what InitializeMetrics set up. Both fields are nil
// when metrics are disabled.
type MetricsResult struct {
	Registry *prometheus.Registry
	Server   *metrics.Server
}

// InitializeMetrics creates the global registry and a stopped /metrics
// server when cfg.Metrics.Enabled.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}
	reg := metrics.InitRegistry()
	return MetricsResult{
		Registry: reg,
		Server:   metrics.NewServer(cfg.Metrics.Port, reg),
	}
}
