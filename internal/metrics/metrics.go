// Package metrics provides Prometheus metrics collection for the fraud
// pipeline. It defines and manages all data-preparation, scoring, and
// trainer metrics that are exposed via the Prometheus metrics endpoint for
// monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
// It provides counters, gauges, and histograms for monitoring of dataset
// preparation, evaluation rounds, and trainer interactions.
type Metrics struct {
	// Dataset and augmentation metrics
	RecordsLoaded    prometheus.Gauge   // Number of records in the loaded dataset
	SyntheticRecords prometheus.Counter // Total synthetic minority records generated

	// Scoring metrics
	RoundsScored prometheus.Counter   // Total evaluation rounds scored
	PrecisionObs prometheus.Histogram // Distribution of per-round precision
	RecallObs    prometheus.Histogram // Distribution of per-round recall
	FBetaObs     prometheus.Histogram // Distribution of per-round F-beta
	BestFBeta    prometheus.Gauge     // Best F-beta seen so far

	// Trainer metrics
	EpochsTotal      prometheus.Counter   // Total training epochs driven
	TrainerLatency   prometheus.Histogram // Trainer call latency in seconds
	TrainerFailures  prometheus.Counter   // Total failed trainer calls
	CheckpointsSaved prometheus.Counter   // Total best-model checkpoints saved

	// System metrics
	LogAppendFailures prometheus.Counter // Total failed training-log appends
	ErrorsTotal       prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
// This is the standard way to create metrics for production use.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// This allows for isolated metric collection in tests without affecting
// the global Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RecordsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_records_loaded",
			Help: "Number of records in the loaded dataset",
		}),
		SyntheticRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "augment_synthetic_records_total",
			Help: "Total synthetic minority records generated",
		}),
		RoundsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "scoring_rounds_total",
			Help: "Total evaluation rounds scored",
		}),
		PrecisionObs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_precision",
			Help:    "Distribution of per-round precision against the fraud class",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		RecallObs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_recall",
			Help:    "Distribution of per-round recall against the fraud class",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		FBetaObs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_f_beta",
			Help:    "Distribution of per-round F-beta scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		BestFBeta: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scoring_best_f_beta",
			Help: "Best F-beta score seen so far in this run",
		}),
		EpochsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_epochs_total",
			Help: "Total training epochs driven",
		}),
		TrainerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainer_call_latency_seconds",
			Help:    "External trainer call latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		}),
		TrainerFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "trainer_failures_total",
			Help: "Total failed external trainer calls",
		}),
		CheckpointsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "checkpoints_saved_total",
			Help: "Total best-model checkpoints saved",
		}),
		LogAppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "train_log_append_failures_total",
			Help: "Total failed training-log appends",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
