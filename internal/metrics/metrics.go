// Package metrics defines the Prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tempcast_forecast_requests_total",
		Help: "Forecast API requests by outcome.",
	}, []string{"status"})

	TrainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tempcast_training_duration_seconds",
		Help:    "Wall time spent fitting and evaluating candidate models.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tempcast_generation_duration_seconds",
		Help:    "Wall time spent generating the day-by-day forecast.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	StepFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tempcast_step_fallbacks_total",
		Help: "Forecast steps that substituted persistence-plus-noise after a prediction error.",
	})

	DataLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tempcast_data_load_failures_total",
		Help: "Failed attempts to load or prepare the observation table.",
	})
)
