package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a dedicated registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ingestions       *prometheus.CounterVec
	modelAttempts    *prometheus.CounterVec
	imageResolutions *prometheus.CounterVec
	photoLookups     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chefmind",
			Name:      "ingestions_total",
			Help:      "Recipe imports by result status.",
		}, []string{"status"}),
		modelAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chefmind",
			Name:      "model_attempts_total",
			Help:      "Generative model calls by model and outcome.",
		}, []string{"model", "outcome"}),
		imageResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chefmind",
			Name:      "image_resolutions_total",
			Help:      "Thumbnail resolutions by winning tier.",
		}, []string{"tier"}),
		photoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chefmind",
			Name:      "photo_lookups_total",
			Help:      "Stock photo lookups by source.",
		}, []string{"source"}),
	}
	registry.MustRegister(m.ingestions, m.modelAttempts, m.imageResolutions, m.photoLookups)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IngestionCompleted(status string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(status).Inc()
}

func (m *Metrics) ModelAttempt(model, outcome string) {
	if m == nil {
		return
	}
	m.modelAttempts.WithLabelValues(model, outcome).Inc()
}

func (m *Metrics) ImageResolved(tier string) {
	if m == nil {
		return
	}
	m.imageResolutions.WithLabelValues(tier).Inc()
}

func (m *Metrics) PhotoLookup(source string) {
	if m == nil {
		return
	}
	m.photoLookups.WithLabelValues(source).Inc()
}
