// Package metrics exposes Prometheus instrumentation for the prediction service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carbon_predict"

// Recorder holds the service collectors. A nil *Recorder is a valid no-op.
type Recorder struct {
	predictions    *prometheus.CounterVec
	upstreamErrors *prometheus.CounterVec
	duration       prometheus.Histogram
	gatherer       prometheus.Gatherer
}

// NewRecorder creates the collectors and registers them on reg.
// gatherer backs Handler and is usually the same registry as reg.
func NewRecorder(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	r := &Recorder{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by source (model or fallback).",
		}, []string{"source"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed gateway calls by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "End-to-end prediction latency including the gateway call.",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: gatherer,
	}
	reg.MustRegister(r.predictions, r.upstreamErrors, r.duration)
	return r
}

// NewRegistryRecorder creates a Recorder backed by a fresh registry that
// also carries the Go runtime and process collectors.
func NewRegistryRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewRecorder(reg, reg)
}

// ObservePrediction counts a successful prediction and records its latency.
func (r *Recorder) ObservePrediction(source string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.predictions.WithLabelValues(source).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// ObserveUpstreamError counts a failed gateway call.
func (r *Recorder) ObserveUpstreamError(kind string) {
	if r == nil {
		return
	}
	r.upstreamErrors.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
