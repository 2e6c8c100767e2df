// Package metrics holds the Prometheus collectors shared across the service.
//
// Label sets are kept small and bounded: upstream resources are the fixed
// feed names ("waterlevel", "rainfall", "dam", "realestate"), kinds are the
// three station kinds, and outcomes come from a closed vocabulary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpstreamRequests counts outbound attempts by resource and outcome
	// (ok, timeout, network_error, upstream_status, parse_error, circuit_open).
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Outbound upstream request attempts.",
		},
		[]string{"resource", "outcome"},
	)

	// UpstreamLatency records single-attempt latency in seconds.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of single upstream request attempts in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource"},
	)

	// Resolutions counts integrated-response outcomes by resolved kind.
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_resolutions_total",
			Help: "Outcomes of station resolution per query.",
		},
		[]string{"kind", "outcome"},
	)

	// DirectoryRefreshes counts per-kind directory refresh results.
	DirectoryRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "station_directory_refreshes_total",
			Help: "Station directory refresh attempts per kind.",
		},
		[]string{"kind", "outcome"},
	)

	// HTTPRequests counts inbound HTTP requests by route and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPLatency records inbound request duration.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(UpstreamRequests, UpstreamLatency, Resolutions, DirectoryRefreshes, HTTPRequests, HTTPLatency)
}
