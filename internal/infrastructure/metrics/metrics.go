// Package metrics exposes Prometheus collectors for vendor traffic and
// event reconciliation.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	VendorAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessbridge_vendor_attempts_total",
			Help: "Vendor HTTP attempts by endpoint and classified outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	VendorCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessbridge_vendor_calls_total",
			Help: "Vendor calls by endpoint and final result",
		},
		[]string{"endpoint", "result"},
	)

	VendorCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accessbridge_vendor_call_duration_seconds",
			Help:    "Duration of vendor calls including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	TokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessbridge_token_refresh_total",
			Help: "Vendor token refreshes by mode and result",
		},
		[]string{"mode", "result"},
	)

	EventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accessbridge_events_processed_total",
			Help: "Access events consumed by reconciliation, by action",
		},
		[]string{"action"},
	)

	EventsIngestedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accessbridge_events_ingested_total",
			Help: "Access events accepted from vendor webhooks",
		},
	)
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(VendorAttemptsTotal)
		prometheus.MustRegister(VendorCallsTotal)
		prometheus.MustRegister(VendorCallDuration)
		prometheus.MustRegister(TokenRefreshTotal)
		prometheus.MustRegister(EventsProcessedTotal)
		prometheus.MustRegister(EventsIngestedTotal)
	})
}
