package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AlertsCreated counts persisted alerts by source and issue type.
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "alerts",
		Name:      "created_total",
		Help:      "Total alerts created by source and issue type.",
	}, []string{"source", "issue_type"})

	// StatusTransitions counts applied status updates by target status.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "alerts",
		Name:      "status_transitions_total",
		Help:      "Total alert status updates by target status.",
	}, []string{"status"})

	// StreamSubscribers tracks currently connected live stream subscribers.
	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "civic",
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Number of connected alert stream subscribers.",
	})

	// StreamDropped counts events discarded for a slow subscriber.
	StreamDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "stream",
		Name:      "events_dropped_total",
		Help:      "Alert events dropped because a subscriber buffer was full.",
	})

	// DetectionsIngested counts camera/voice detections by outcome.
	DetectionsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "detections",
		Name:      "ingested_total",
		Help:      "Detections processed by outcome (created, ignored, rejected).",
	}, []string{"outcome"})

	// AirQualityReadings counts telemetry messages by outcome.
	AirQualityReadings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "telemetry",
		Name:      "aqi_readings_total",
		Help:      "Air quality readings received by outcome.",
	}, []string{"outcome"})

	// HTTPRequestDuration tracks API latency by route and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "civic",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
