package schema

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ocn_contracts"

// Metrics holds the Prometheus collectors for schema loading and validation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SchemaLoads        *prometheus.CounterVec
	SchemaLoadFailures *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	Compilations       *prometheus.CounterVec
	Validations        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SchemaLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_loads_total",
			Help:      "Schema documents read from storage",
		}, []string{"category"}),
		SchemaLoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_load_failures_total",
			Help:      "Schema loads that failed, by reason",
		}, []string{"category", "reason"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Schema and validator cache lookups",
		}, []string{"cache", "result"}),
		Compilations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validator_compilations_total",
			Help:      "Validators compiled from schema documents",
		}, []string{"category"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validations performed, by subject and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) recordLoad(c Category) {
	if m == nil {
		return
	}
	m.SchemaLoads.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordLoadFailure(c Category, reason string) {
	if m == nil {
		return
	}
	m.SchemaLoadFailures.WithLabelValues(c.String(), reason).Inc()
}

func (m *Metrics) recordLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) recordCompile(c Category) {
	if m == nil {
		return
	}
	m.Compilations.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) recordValidation(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "valid"
	switch {
	case errors.Is(err, ErrValidationFailed):
		outcome = "invalid"
	case err != nil:
		outcome = "error"
	}
	m.Validations.WithLabelValues(kind, outcome).Inc()
}
