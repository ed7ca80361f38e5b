// Package metrics provides Prometheus instrumentation for the scanner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "securepay"

// Metrics groups the collectors recorded by the HTTP layer and the scanner.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestsTotal counts HTTP requests by method, path and status class.
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration *prometheus.HistogramVec
	// PredictionsTotal counts successful scans by label.
	PredictionsTotal *prometheus.CounterVec
	// PredictionErrorsTotal counts failed scans by stage.
	PredictionErrorsTotal *prometheus.CounterVec
	// InferenceDuration observes transform+scale+classify latency.
	InferenceDuration prometheus.Histogram
	// FraudScore observes the fraud probability of each scan.
	FraudScore prometheus.Histogram
	// ArtifactInfo is set to 1 for the loaded scaler and classifier.
	ArtifactInfo *prometheus.GaugeVec
}

// New creates the collectors and registers them, with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, path and status class.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total scored transactions by label.",
			},
			[]string{"label"},
		),
		PredictionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_errors_total",
				Help:      "Total failed scans by stage.",
			},
			[]string{"stage"},
		),
		InferenceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inference_duration_seconds",
				Help:      "Time to transform, scale and classify one transaction.",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
		),
		FraudScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fraud_score",
				Help:      "Distribution of fraud probabilities.",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		ArtifactInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "artifact_info",
				Help:      "Loaded model artifacts by role, kind and source.",
			},
			[]string{"role", "kind", "uri"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PredictionsTotal,
		m.PredictionErrorsTotal,
		m.InferenceDuration,
		m.FraudScore,
		m.ArtifactInfo,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusBucket(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObservePrediction records a successful scan.
func (m *Metrics) ObservePrediction(label string, score *float64, elapsed time.Duration) {
	m.PredictionsTotal.WithLabelValues(label).Inc()
	m.InferenceDuration.Observe(elapsed.Seconds())
	if score != nil {
		m.FraudScore.Observe(*score)
	}
}

// ObservePredictionError records a failed scan.
func (m *Metrics) ObservePredictionError(stage string) {
	m.PredictionErrorsTotal.WithLabelValues(stage).Inc()
}

// SetArtifact marks an artifact as loaded.
func (m *Metrics) SetArtifact(role, kind, uri string) {
	m.ArtifactInfo.WithLabelValues(role, kind, uri).Set(1)
}

func statusBucket(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code/100) + "xx"
}
