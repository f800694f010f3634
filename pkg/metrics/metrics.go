package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lab lifecycle metrics
var (
	LabsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labs_started_total",
			Help: "Total number of lab creation requests accepted",
		},
		[]string{"cloud_provider"},
	)

	StatusReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_status_reports_total",
			Help: "Total number of status reports received from workflows",
		},
		[]string{"status"},
	)
)

// Outbound integration metrics
var (
	WorkflowDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_dispatches_total",
			Help: "Total number of CI workflow dispatch attempts",
		},
		[]string{"action", "outcome"},
	)

	RelayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_calls_total",
			Help: "Total number of outbound relay calls",
		},
		[]string{"relay", "outcome"},
	)
)

// HTTP server metrics
var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)
