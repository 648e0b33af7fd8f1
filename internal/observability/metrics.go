package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// TrainJob is the Pushgateway job name of training runs.
const TrainJob = "soil_model_train"

// Metrics holds the Prometheus counters, histograms, and gauges for training and serving.
type Metrics struct {
	// Training metrics.
	TrainingRuns     *prometheus.CounterVec // labels: outcome={success,not_found,ambiguous_station,insufficient_data,training_error,storage_error,error}
	TrainingDuration prometheus.Histogram
	DatasetRows      prometheus.Histogram
	PipelineRunning  prometheus.Gauge

	// Serving metrics.
	Predictions        *prometheus.CounterVec // labels: mode={one,batch}, outcome={success,schema_mismatch,not_found,error}
	PredictionDuration *prometheus.HistogramVec
	ArtifactLoads      *prometheus.CounterVec // labels: outcome={success,not_found,incompatible,error}
	ArtifactCache      *prometheus.CounterVec // labels: result={hit,miss}
	ArtifactsCached    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics and registers them with reg. Batch
// commands use a private registry so only their own series are pushed.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.TrainingRuns,
		m.TrainingDuration,
		m.DatasetRows,
		m.PipelineRunning,
		m.Predictions,
		m.PredictionDuration,
		m.ArtifactLoads,
		m.ArtifactCache,
		m.ArtifactsCached,
	)
	return m
}

// Push replaces the job's metric group on the Pushgateway at url with
// everything g gathers.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TrainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_model",
			Name:      "training_runs_total",
			Help:      "Station training runs by outcome.",
		}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soil_model",
			Name:      "training_duration_seconds",
			Help:      "Duration of one station's build-train-save cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		DatasetRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soil_model",
			Name:      "dataset_rows",
			Help:      "Training examples per station after cleaning and lagging.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soil_model",
			Name:      "pipeline_running",
			Help:      "1 while a training pipeline is active, 0 otherwise.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_model",
			Name:      "predictions_total",
			Help:      "Prediction requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		PredictionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soil_model",
			Name:      "prediction_duration_seconds",
			Help:      "Prediction latency including any artifact load.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"mode"}),
		ArtifactLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_model",
			Name:      "artifact_loads_total",
			Help:      "Artifact loads from storage by outcome.",
		}, []string{"outcome"}),
		ArtifactCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soil_model",
			Name:      "artifact_cache_total",
			Help:      "Artifact cache lookups by result.",
		}, []string{"result"}),
		ArtifactsCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "soil_model",
			Name:      "artifacts_cached",
			Help:      "Artifacts currently held in memory.",
		}),
	}
}
