// Package metrics exposes Prometheus instrumentation for list building.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/larder/internal/models"
)

const namespace = "larder"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	lineItems   prometheus.Counter
	notices     *prometheus.CounterVec
	identities  *prometheus.CounterVec
	listsBuilt  *prometheus.CounterVec
	buildTime   prometheus.Histogram
	vaultEvents *prometheus.CounterVec
}

// New registers every collector plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		lineItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolved_line_items_total",
			Help:      "Line items produced by recipe resolution.",
		}),
		notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Skipped or truncated data, by kind.",
		}, []string{"kind"}),
		identities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_resolutions_total",
			Help:      "Ingredient identities attached, by match tier.",
		}, []string{"tier"}),
		listsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lists_built_total",
			Help:      "Shopping lists built, by source.",
		}, []string{"source"}),
		buildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_build_seconds",
			Help:      "Time to build a shopping list.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		vaultEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vault_events_total",
			Help:      "Vault file changes applied by the watcher.",
		}, []string{"kind"}),
	}
	m.reg.MustRegister(
		m.lineItems, m.notices, m.identities, m.listsBuilt, m.buildTime, m.vaultEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveResolution records the output of one recipe resolution.
func (m *Metrics) ObserveResolution(items []models.LineItem, notices []models.Notice) {
	if m == nil {
		return
	}
	m.lineItems.Add(float64(len(items)))
	for _, n := range notices {
		m.notices.WithLabelValues(string(n.Kind)).Inc()
	}
}

// ObserveIdentities counts the tier of every attached identity.
func (m *Metrics) ObserveIdentities(items []models.LineItem) {
	if m == nil {
		return
	}
	for _, it := range items {
		if it.Identity != nil {
			m.identities.WithLabelValues(string(it.Identity.Tier)).Inc()
		}
	}
}

// ObserveList records a built list.
func (m *Metrics) ObserveList(source string, start time.Time) {
	if m == nil {
		return
	}
	m.listsBuilt.WithLabelValues(source).Inc()
	m.buildTime.Observe(time.Since(start).Seconds())
}

// ObserveVaultEvent counts a watcher-applied change.
func (m *Metrics) ObserveVaultEvent(kind string) {
	if m == nil {
		return
	}
	m.vaultEvents.WithLabelValues(kind).Inc()
}
