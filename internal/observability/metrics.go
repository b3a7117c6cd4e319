package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the prediction service.
type Metrics struct {
	Predictions      *prometheus.CounterVec // labels: path={location,features}, classification={Safe,Unhealthy}
	PredictionErrors *prometheus.CounterVec // labels: path={location,features}
	MissingFeatures  *prometheus.CounterVec // labels: feature

	// Result cache metrics.
	Cache *prometheus.CounterVec // labels: result={hit,miss}

	// Model metrics.
	ModelLoaded       prometheus.Gauge
	ModelLoadDuration prometheus.Histogram

	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={airnow,nws}, outcome={success,error,empty}
	UpstreamDuration *prometheus.HistogramVec // labels: source

	// Publisher metrics.
	PublisherRunning     prometheus.Gauge
	Published            prometheus.Counter
	PublishBatchDuration prometheus.Histogram
	PublishFailures      prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.MissingFeatures,
		m.Cache,
		m.ModelLoaded,
		m.ModelLoadDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.PublisherRunning,
		m.Published,
		m.PublishBatchDuration,
		m.PublishFailures,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "predictions_total",
			Help:      "Completed predictions by request path and classification.",
		}, []string{"path", "classification"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by request path.",
		}, []string{"path"}),
		MissingFeatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "missing_features_total",
			Help:      "Schema features absent from a mapping and replaced by the default value.",
		}, []string{"feature"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "cache_total",
			Help:      "Result cache lookups by result.",
		}, []string{"result"}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "airwatch",
			Name:      "model_loaded",
			Help:      "1 once the model artifact and feature list are loaded.",
		}),
		ModelLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airwatch",
			Name:      "model_load_duration_seconds",
			Help:      "Duration of model artifact loading.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "airwatch",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "airwatch",
			Name:      "publisher_running",
			Help:      "1 when the prediction publisher is active, 0 when shut down.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "published_total",
			Help:      "Total decisions written to the sink topic.",
		}),
		PublishBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airwatch",
			Name:      "publish_batch_duration_seconds",
			Help:      "Duration of a complete predict-and-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "airwatch",
			Name:      "publish_failures_total",
			Help:      "Batches dropped after exhausting publish retries.",
		}),
	}
}
