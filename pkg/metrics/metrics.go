// Package metrics exposes Prometheus collectors for the centering loop.
package metrics

import (
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rcpd/gridlevel/pkg/centering"
)

type Metrics struct {
	registry        *prometheus.Registry
	samplesTotal    *prometheus.CounterVec
	samplesSkipped  prometheus.Counter
	transitions     *prometheus.CounterVec
	feedbackErrors  prometheus.Counter
	rotationDegrees prometheus.Gauge
	centered        prometheus.Gauge
	alpha           prometheus.Gauge
}

// New registers all collectors on a private registry, so several daemons can
// live in one test binary.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		samplesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridlevel_samples_total",
			Help: "Total gravity samples classified, by resulting status.",
		}, []string{"status"}),
		samplesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridlevel_samples_skipped_total",
			Help: "Total samples skipped because they could not be decoded.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridlevel_transitions_total",
			Help: "Total centering transitions shown on the overlay.",
		}, []string{"transition"}),
		feedbackErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridlevel_feedback_errors_total",
			Help: "Total feedback player failures.",
		}),
		rotationDegrees: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridlevel_rotation_degrees",
			Help: "Rotation of the grid from the last sample, in degrees.",
		}),
		centered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridlevel_centered",
			Help: "1 when the last sample was centered, 0 otherwise.",
		}),
		alpha: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridlevel_overlay_alpha",
			Help: "Overlay opacity derived from z gravity.",
		}),
	}

	m.registry.MustRegister(
		m.samplesTotal,
		m.samplesSkipped,
		m.transitions,
		m.feedbackErrors,
		m.rotationDegrees,
		m.centered,
		m.alpha,
	)

	return m
}

// ObserveSample records one classified sample.
func (m *Metrics) ObserveSample(res centering.Result, alpha float64) {
	if m == nil {
		return
	}
	m.samplesTotal.WithLabelValues(string(res.Status)).Inc()
	m.rotationDegrees.Set(res.Rotation * 180 / math.Pi)
	m.alpha.Set(alpha)
	if res.Status == centering.StatusCentered {
		m.centered.Set(1)
	} else {
		m.centered.Set(0)
	}
}

func (m *Metrics) ObserveSkipped() {
	if m == nil {
		return
	}
	m.samplesSkipped.Inc()
}

func (m *Metrics) ObserveTransition(tr centering.Transition) {
	if m == nil || tr == centering.NoTransition {
		return
	}
	m.transitions.WithLabelValues(string(tr)).Inc()
}

func (m *Metrics) ObserveFeedbackError() {
	if m == nil {
		return
	}
	m.feedbackErrors.Inc()
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
