package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "argopy"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	DatasetsLoaded  prometheus.Counter
	DatasetsWritten prometheus.Counter
	SourcesMissing  prometheus.Counter
	TransformErrors prometheus.Counter
	CastFailures    prometheus.Counter
	PipelineRunning prometheus.Gauge

	TransformDuration  prometheus.Histogram
	ProfilesPerDataset prometheus.Histogram
}

var (
	durationBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30}
	profileBuckets  = []float64{1, 10, 50, 100, 200, 300, 500, 1000}
)

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_loaded_total",
			Help:      "Total float datasets read from the source.",
		}),
		DatasetsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_written_total",
			Help:      "Total transformed datasets written to the sink.",
		}),
		SourcesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_missing_total",
			Help:      "Total floats whose source file does not exist.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total transformation failures.",
		}),
		CastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cast_failures_total",
			Help:      "Total variables the type normalizer could not convert.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is processing floats, 0 otherwise.",
		}),
		TransformDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transform_duration_seconds",
			Help:      "Duration of the transformation of one float dataset.",
			Buckets:   durationBuckets,
		}),
		ProfilesPerDataset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "profiles_per_dataset",
			Help:      "Number of profiles in each loaded float dataset.",
			Buckets:   profileBuckets,
		}),
	}

	prometheus.MustRegister(
		m.DatasetsLoaded,
		m.DatasetsWritten,
		m.SourcesMissing,
		m.TransformErrors,
		m.CastFailures,
		m.PipelineRunning,
		m.TransformDuration,
		m.ProfilesPerDataset,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetsLoaded:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "datasets_loaded_total"}),
		DatasetsWritten:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "datasets_written_total"}),
		SourcesMissing:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "sources_missing_total"}),
		TransformErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "transform_errors_total"}),
		CastFailures:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "cast_failures_total"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		TransformDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "transform_duration_seconds"}),
		ProfilesPerDataset: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "profiles_per_dataset"}),
	}
}
