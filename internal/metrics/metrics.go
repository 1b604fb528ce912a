// Package metrics exposes the Prometheus counters and histograms the
// orchestrator and API server update.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CollectorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qaagent_collector_runs_total",
			Help: "Total number of collector invocations, by tool and outcome",
		},
		[]string{"tool", "executed"},
	)

	CollectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qaagent_collector_duration_seconds",
			Help:    "Collector invocation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"tool"},
	)

	EvidenceRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qaagent_evidence_records_total",
			Help: "Total number of evidence records written, by category",
		},
		[]string{"category"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qaagent_http_requests_total",
			Help: "Total number of HTTP requests served, by route and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qaagent_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"route", "method"},
	)
)
