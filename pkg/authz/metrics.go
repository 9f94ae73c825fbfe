package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks Prometheus metrics for the authorization service.
//
// All metrics use the "kanbu_acl_" prefix. Methods handle a nil receiver
// gracefully, so a nil *Metrics is a no-op when metrics are disabled.
type Metrics struct {
	// EvaluationDuration tracks time to answer a permission check.
	EvaluationDuration prometheus.Histogram

	// EvaluationTotal counts evaluations by result.
	// Labels: result=[allowed, denied]
	EvaluationTotal *prometheus.CounterVec

	// MutationTotal counts successful entry mutations.
	// Labels: operation=[grant, deny, revoke]
	MutationTotal *prometheus.CounterVec

	// ValidationErrorsTotal counts requests rejected before store access.
	ValidationErrorsTotal prometheus.Counter

	// StoreErrorsTotal counts failed store calls.
	StoreErrorsTotal prometheus.Counter
}

// NewMetrics creates the metrics and registers them on registerer.
// If registerer is nil, prometheus.DefaultRegisterer is used. Registering
// twice on the same registerer panics, so callers create one per registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		EvaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kanbu_acl_evaluation_duration_seconds",
				Help:    "Time to evaluate a permission check",
				Buckets: prometheus.DefBuckets,
			},
		),
		EvaluationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanbu_acl_evaluation_total",
				Help: "Total permission checks by result",
			},
			[]string{"result"},
		),
		MutationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanbu_acl_mutation_total",
				Help: "Total ACL entry mutations by operation",
			},
			[]string{"operation"},
		),
		ValidationErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kanbu_acl_validation_errors_total",
				Help: "Total requests rejected by input validation",
			},
		),
		StoreErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kanbu_acl_store_errors_total",
				Help: "Total failed store calls",
			},
		),
	}

	registerer.MustRegister(
		m.EvaluationDuration,
		m.EvaluationTotal,
		m.MutationTotal,
		m.ValidationErrorsTotal,
		m.StoreErrorsTotal,
	)
	return m
}

// ObserveEvaluation records a permission check result with its duration.
func (m *Metrics) ObserveEvaluation(duration time.Duration, allowed bool) {
	if m == nil {
		return
	}
	m.EvaluationDuration.Observe(duration.Seconds())
	if allowed {
		m.EvaluationTotal.WithLabelValues("allowed").Inc()
	} else {
		m.EvaluationTotal.WithLabelValues("denied").Inc()
	}
}

// ObserveMutation records a successful grant, deny or revoke.
func (m *Metrics) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.MutationTotal.WithLabelValues(operation).Inc()
}

// ObserveValidationError records a rejected request.
func (m *Metrics) ObserveValidationError() {
	if m == nil {
		return
	}
	m.ValidationErrorsTotal.Inc()
}

// ObserveStoreError records a failed store call.
func (m *Metrics) ObserveStoreError() {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.Inc()
}
