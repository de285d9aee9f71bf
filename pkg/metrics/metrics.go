// Package metrics exposes engine activity as Prometheus collectors.
// The engine records into a Metrics value supplied by the caller; a nil
// *Metrics is valid and records nothing, so instrumentation stays
// optional.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	requestsTotal   prometheus.Counter
	pagesCrawled    prometheus.Counter
	findingsTotal   *prometheus.CounterVec
	emergencyAborts prometheus.Counter
	frontierDepth   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
// Pass prometheus.NewRegistry() in tests to avoid global registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "websecscan",
			Name:      "requests_total",
			Help:      "Outbound HTTP requests issued by the engine.",
		}),
		pagesCrawled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "websecscan",
			Name:      "pages_crawled_total",
			Help:      "Pages fetched and parsed by the crawler.",
		}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "websecscan",
			Name:      "findings_total",
			Help:      "Findings reported by test runners, by severity.",
		}, []string{"severity"}),
		emergencyAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "websecscan",
			Name:      "emergency_aborts_total",
			Help:      "Scans halted by the request/time budget brake.",
		}),
		frontierDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "websecscan",
			Name:      "frontier_depth",
			Help:      "Depth of the page most recently dequeued.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.pagesCrawled, m.findingsTotal,
			m.emergencyAborts, m.frontierDepth)
	}
	return m
}

// RequestIssued increments the outbound request counter.
func (m *Metrics) RequestIssued() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// PageCrawled increments the crawled page counter and records its depth.
func (m *Metrics) PageCrawled(depth int) {
	if m == nil {
		return
	}
	m.pagesCrawled.Inc()
	m.frontierDepth.Set(float64(depth))
}

// FindingReported counts a finding under its severity label.
func (m *Metrics) FindingReported(severity string) {
	if m == nil {
		return
	}
	m.findingsTotal.WithLabelValues(severity).Inc()
}

// EmergencyAbort counts a budget-brake halt.
func (m *Metrics) EmergencyAbort() {
	if m == nil {
		return
	}
	m.emergencyAborts.Inc()
}
