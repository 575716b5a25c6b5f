package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UsageSnapshot is the global guardrail usage picture exported as gauges.
type UsageSnapshot struct {
	TotalSessions  int
	TotalRequests  int
	ActiveSessions int
}

// UsageSource is implemented by the guardrail filter.
type UsageSource interface {
	GlobalUsage() UsageSnapshot
}

// SessionCollector reads session usage on every scrape instead of keeping
// gauges in sync with the limiter.
type SessionCollector struct {
	source UsageSource

	totalSessions  *prometheus.Desc
	totalRequests  *prometheus.Desc
	activeSessions *prometheus.Desc
}

// NewSessionCollector creates a collector over the given usage source
func NewSessionCollector(source UsageSource) *SessionCollector {
	return &SessionCollector{
		source: source,
		totalSessions: prometheus.NewDesc(
			"finassist_sessions_tracked",
			"Sessions with requests inside the rate-limit window",
			nil, nil,
		),
		totalRequests: prometheus.NewDesc(
			"finassist_session_requests_window",
			"Requests recorded inside the rate-limit window across sessions",
			nil, nil,
		),
		activeSessions: prometheus.NewDesc(
			"finassist_sessions_active",
			"Sessions with a request in the last 5 minutes",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalSessions
	ch <- c.totalRequests
	ch <- c.activeSessions
}

// Collect implements prometheus.Collector
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.source.GlobalUsage()
	ch <- prometheus.MustNewConstMetric(c.totalSessions, prometheus.GaugeValue, float64(snap.TotalSessions))
	ch <- prometheus.MustNewConstMetric(c.totalRequests, prometheus.GaugeValue, float64(snap.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, float64(snap.ActiveSessions))
}

// RegisterSessionCollector registers the collector on the default registry,
// tolerating repeated registration from tests.
func RegisterSessionCollector(source UsageSource) error {
	err := prometheus.Register(NewSessionCollector(source))
	if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return nil
	}
	return err
}
