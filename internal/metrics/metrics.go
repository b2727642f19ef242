// Package metrics holds the Prometheus collectors for the intake pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_extraction_duration_seconds",
			Help:    "Extraction service call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
		[]string{"outcome"}, // ok, quota, auth, network, generic
	)

	Summarizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_summarizations_total",
			Help: "Email bodies sent through pre-summarization",
		},
		[]string{"outcome"}, // ok, failed
	)

	EmailParse = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_email_parse_total",
			Help: "Email files read, by how the body was obtained",
		},
		[]string{"path"}, // structured, fallback, cleared
	)

	NormalizationAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_normalization_adjustments_total",
			Help: "Numeric fields changed or discarded by tier normalization",
		},
		[]string{"field"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Quote submissions by outcome",
		},
		[]string{"outcome"}, // approved, declined, error
	)
)

func RecordExtraction(outcome string, d time.Duration) {
	ExtractionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func IncSummarization(outcome string) {
	Summarizations.WithLabelValues(outcome).Inc()
}

func IncEmailParse(path string) {
	EmailParse.WithLabelValues(path).Inc()
}

func IncNormalization(field string) {
	NormalizationAdjustments.WithLabelValues(field).Inc()
}

func IncSubmission(outcome string) {
	Submissions.WithLabelValues(outcome).Inc()
}
