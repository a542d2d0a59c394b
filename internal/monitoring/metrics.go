package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const METRICS_NAMESPACE = "reviewflow"

// Outcome labels shared by the search and analysis counters.
const (
	OUTCOME_OK       = "ok"
	OUTCOME_EMPTY    = "empty"
	OUTCOME_CACHED   = "cached"
	OUTCOME_FAILED   = "failed"
	OUTCOME_NO_CREDS = "missing_credential"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	searches    *prometheus.CounterVec
	analyses    *prometheus.CounterVec
	itemsStored prometheus.Counter
	events      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: METRICS_NAMESPACE,
			Name:      "searches_total",
			Help:      "Blog searches by outcome.",
		}, []string{"outcome"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: METRICS_NAMESPACE,
			Name:      "analyses_total",
			Help:      "Analysis requests by outcome; cached means no model call was made.",
		}, []string{"outcome"}),
		itemsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: METRICS_NAMESPACE,
			Name:      "items_stored_total",
			Help:      "Blog posts written to the store.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: METRICS_NAMESPACE,
			Name:      "events_published_total",
			Help:      "Pipeline notifications sent to Kafka by result.",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		m.searches,
		m.analyses,
		m.itemsStored,
		m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddStored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsStored.Add(float64(n))
}

func (m *Metrics) ObserveEvent(err error) {
	if m == nil {
		return
	}
	result := OUTCOME_OK
	if err != nil {
		result = OUTCOME_FAILED
	}
	m.events.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
