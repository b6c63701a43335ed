package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the safety service.
type Metrics struct {
	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: provider={zippopotam,nominatim,nws_alerts,nws_points,nws_forecast}, outcome
	UpstreamDuration *prometheus.HistogramVec // labels: provider

	// Geocoding cache metrics.
	GeocodeCache *prometheus.CounterVec // labels: result={hit,miss}

	// Report metrics.
	ReportsBuilt     *prometheus.CounterVec // labels: outcome={success,not_found,invalid_input}
	ReportsPublished *prometheus.CounterVec // labels: outcome={success,upstream_failure}

	// Notification metrics.
	Notifications *prometheus.CounterVec // labels: channel={email,sms}, outcome={success,not_configured,upstream_failure,invalid_input}

	ChatIntents *prometheus.CounterVec // labels: intent
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.GeocodeCache,
		m.ReportsBuilt,
		m.ReportsPublished,
		m.Notifications,
		m.ChatIntents,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "safety",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "geocode_cache_total",
			Help:      "Location cache lookups by result.",
		}, []string{"result"}),
		ReportsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "reports_total",
			Help:      "Safety report requests by outcome.",
		}, []string{"outcome"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "reports_published_total",
			Help:      "Reports written to the report stream by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "notifications_total",
			Help:      "Notification attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		ChatIntents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "safety",
			Name:      "chat_intents_total",
			Help:      "Chat messages by classified intent.",
		}, []string{"intent"}),
	}
}
