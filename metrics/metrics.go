package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ValidationsTotal counts data-point validations, labeled by resulting status.
	ValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esg",
		Subsystem: "validation",
		Name:      "datapoints_total",
		Help:      "Total number of data-point validations, labeled by resulting validation status.",
	}, []string{"status"})

	// ValidationDurationSeconds is end-to-end time for one data-point validation.
	ValidationDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "esg",
		Subsystem: "validation",
		Name:      "duration_seconds",
		Help:      "End-to-end time to validate one data point, including sibling lookups.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})

	// AssessmentsScoredTotal counts framework scoring runs, labeled by framework.
	AssessmentsScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esg",
		Subsystem: "scoring",
		Name:      "assessments_total",
		Help:      "Total number of framework assessments scored, labeled by framework.",
	}, []string{"framework"})

	// ReportsGeneratedTotal counts report generations, labeled by outcome
	// (generated, fallback).
	ReportsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esg",
		Subsystem: "report",
		Name:      "generated_total",
		Help:      "Total number of reports generated, labeled by outcome (generated or fallback).",
	}, []string{"outcome"})

	// ReportDurationSeconds is end-to-end report generation time including the
	// narrative provider call.
	ReportDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "esg",
		Subsystem: "report",
		Name:      "duration_seconds",
		Help:      "End-to-end time to generate a report, including the narrative provider call.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	})

	// NarrativeFallbacksTotal counts narrative-provider failures recovered by
	// the fallback report path.
	NarrativeFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "esg",
		Subsystem: "report",
		Name:      "narrative_fallbacks_total",
		Help:      "Total number of narrative-provider failures recovered via the fallback report.",
	})

	// RabbitMQConnected is 1 when the publisher considers itself connected.
	RabbitMQConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "esg",
		Subsystem: "events",
		Name:      "rabbitmq_connected",
		Help:      "Whether the event publisher currently has an open RabbitMQ connection (best-effort).",
	})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ValidationsTotal,
			ValidationDurationSeconds,
			AssessmentsScoredTotal,
			ReportsGeneratedTotal,
			ReportDurationSeconds,
			NarrativeFallbacksTotal,
			RabbitMQConnected,
		)
	})
}
