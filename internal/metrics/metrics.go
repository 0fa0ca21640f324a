package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components never need to check for it.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	navigations     *prometheus.CounterVec
	playbackFailure prometheus.Counter
	uploads         *prometheus.CounterVec
	sessionRestores *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidfriends",
			Name:      "api_requests_total",
			Help:      "Backend calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vidfriends",
			Name:      "api_request_duration_seconds",
			Help:      "Backend call latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidfriends",
			Name:      "feed_navigations_total",
			Help:      "Feed index changes by kind.",
		}, []string{"kind"}),
		playbackFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidfriends",
			Name:      "playback_failures_total",
			Help:      "Cards that transitioned to the errored state.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidfriends",
			Name:      "uploads_total",
			Help:      "Upload submissions by outcome.",
		}, []string{"outcome"}),
		sessionRestores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidfriends",
			Name:      "session_restores_total",
			Help:      "Session restore attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.apiRequests,
		m.apiDuration,
		m.navigations,
		m.playbackFailure,
		m.uploads,
		m.sessionRestores,
	)
	return m
}

// Registry exposes the underlying registry for tests and custom handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one backend call.
func (m *Metrics) ObserveRequest(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(op, outcome).Inc()
	m.apiDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Navigation records a feed index change ("up", "down" or "jump").
func (m *Metrics) Navigation(kind string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(kind).Inc()
}

// PlaybackFailed records a card entering the errored state.
func (m *Metrics) PlaybackFailed() {
	if m == nil {
		return
	}
	m.playbackFailure.Inc()
}

// Upload records a submission outcome.
func (m *Metrics) Upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// SessionRestore records a restore outcome.
func (m *Metrics) SessionRestore(outcome string) {
	if m == nil {
		return
	}
	m.sessionRestores.WithLabelValues(outcome).Inc()
}
