// Package metrics records fit outcomes in a prometheus registry that can be written in
// the node exporter textfile format.
package metrics

import (
	"errors"
	"time"

	"github.com/aouyang1/go-curvefit/internal/fiterr"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "curvefit"

// Fit outcome label values
const (
	StatusOK           = "ok"
	StatusInvalidInput = "invalid_input"
	StatusConvergence  = "convergence"
	StatusError        = "error"
)

type Prometheus struct {
	Fits              *prometheus.CounterVec
	Duration          *prometheus.HistogramVec
	Iterations        *prometheus.HistogramVec
	ReducedChiSquared *prometheus.GaugeVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fits_total",
				Help:      "Number of fits by solver method and outcome.",
			}, []string{"method", "status"}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_duration_seconds",
				Help:      "Wall time of a fit.",
				Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
			}, []string{"method"}),
		Iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_iterations",
				Help:      "Solver iterations of successful fits.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
			}, []string{"method"}),
		ReducedChiSquared: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reduced_chi_squared",
				Help:      "Reduced chi-squared of the latest fit per dataset.",
			}, []string{"dataset"}),
	}
}

// Metrics owns a registry so independent runs and tests do not share state
type Metrics struct {
	registry   *prometheus.Registry
	prometheus Prometheus
}

func New() *Metrics {
	m := &Metrics{
		registry:   prometheus.NewRegistry(),
		prometheus: NewPrometheusMetrics(),
	}
	m.registry.MustRegister(
		m.prometheus.Fits,
		m.prometheus.Duration,
		m.prometheus.Iterations,
		m.prometheus.ReducedChiSquared,
	)
	return m
}

// Registry returns the gatherer backing the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Status classifies a fit error into a status label value
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, fiterr.ErrInvalidInput):
		return StatusInvalidInput
	case errors.Is(err, fiterr.ErrConvergence):
		return StatusConvergence
	default:
		return StatusError
	}
}

// ObserveFit records one fit attempt. Iterations are only recorded for successful fits.
func (m *Metrics) ObserveFit(method string, d time.Duration, iterations int, err error) {
	m.prometheus.Fits.WithLabelValues(method, Status(err)).Inc()
	m.prometheus.Duration.WithLabelValues(method).Observe(d.Seconds())
	if err == nil {
		m.prometheus.Iterations.WithLabelValues(method).Observe(float64(iterations))
	}
}

func (m *Metrics) SetReducedChiSquared(dataset string, val float64) {
	m.prometheus.ReducedChiSquared.WithLabelValues(dataset).Set(val)
}

// WriteTextfile atomically writes all metrics to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry())
}
