// Package metrics provides Prometheus metrics for the grip
// classification service: inference counters and latency, model age,
// confidence-score distribution, and landmark stream health. Exposed
// on the /metrics endpoint of gripd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the grip service.
type Metrics struct {
	// Inference metrics
	Predictions      prometheus.Counter   // Total grip predictions made
	PredictionErrors prometheus.Counter   // Predictions skipped for invalid input
	PredictionLag    prometheus.Histogram // Per-call prediction latency in seconds
	Confidence       prometheus.Histogram // Distribution of prediction confidence
	ModelAge         prometheus.Gauge     // Age of the loaded model artifact in seconds

	// Landmark stream metrics
	FramesReceived prometheus.Counter // Landmark frames received from the tracker
	WSReconnects   prometheus.Counter // Tracker WebSocket reconnections

	// System metrics
	ErrorsTotal prometheus.Counter // Total errors encountered
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps
// tests isolated from the global registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "grip_predictions_total",
			Help: "Total number of grip predictions made",
		}),
		PredictionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "grip_prediction_errors_total",
			Help: "Total number of predictions skipped for invalid landmark input",
		}),
		PredictionLag: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grip_prediction_latency_seconds",
			Help:    "Grip prediction latency in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "grip_prediction_confidence",
			Help:    "Distribution of grip prediction confidence scores",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "grip_model_age_seconds",
			Help: "Age of the loaded grip model artifact in seconds",
		}),
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "landmark_frames_received_total",
			Help: "Total number of landmark frames received from the tracker",
		}),
		WSReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "tracker_ws_reconnects_total",
			Help: "Total number of tracker WebSocket reconnections",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
