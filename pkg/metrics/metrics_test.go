package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rcpd/gridlevel/pkg/centering"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()

	m.ObserveSample(centering.Result{Status: centering.StatusCentered, Rotation: -3.14159}, 1)
	m.ObserveSample(centering.Result{Status: centering.StatusNotCentered, Rotation: -2}, 0.5)
	m.ObserveSample(centering.Result{Status: centering.StatusNotCentered, Rotation: -2}, 0.5)
	m.ObserveSkipped()
	m.ObserveTransition(centering.BecameCentered)
	m.ObserveTransition(centering.NoTransition)
	m.ObserveFeedbackError()

	if got := testutil.ToFloat64(m.samplesTotal.WithLabelValues(string(centering.StatusNotCentered))); got != 2 {
		t.Errorf("not centered samples = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.samplesSkipped); got != 1 {
		t.Errorf("skipped samples = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues(string(centering.BecameCentered))); got != 1 {
		t.Errorf("transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.centered); got != 0 {
		t.Errorf("centered gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.alpha); got != 0.5 {
		t.Errorf("alpha gauge = %v, want 0.5", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "gridlevel_samples_total") {
		t.Errorf("metrics output does not contain gridlevel_samples_total")
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSample(centering.Result{}, 0)
	m.ObserveSkipped()
	m.ObserveTransition(centering.BecameUncentered)
	m.ObserveFeedbackError()
}
