// Package metrics exposes Prometheus counters and histograms for panorama runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so several recorders can coexist in tests.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	framesSampled prometheus.Counter
	activeRuns    prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panorama_runs_total",
			Help: "Total number of panorama runs, by final status",
		}, []string{"status"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "panorama_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		framesSampled: factory.NewCounter(prometheus.CounterOpts{
			Name: "panorama_frames_sampled_total",
			Help: "Total number of frames sampled across all runs",
		}),
		activeRuns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "panorama_active_runs",
			Help: "Number of runs currently in progress",
		}),
	}
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunStarted marks a run as in progress.
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.activeRuns.Inc()
}

// RunFinished counts a run by its final status and clears it from the active gauge.
func (r *Recorder) RunFinished(status string) {
	if r == nil {
		return
	}
	r.activeRuns.Dec()
	r.runs.WithLabelValues(status).Inc()
}

// FramesSampled adds n to the sampled frame counter.
func (r *Recorder) FramesSampled(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.framesSampled.Add(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
