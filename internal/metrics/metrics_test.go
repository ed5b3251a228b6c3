package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, rec *Recorder) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestRecorder_ObservePrediction(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg, reg)

	rec.ObservePrediction("model", 150*time.Millisecond)
	rec.ObservePrediction("fallback", 10*time.Millisecond)
	rec.ObservePrediction("fallback", 12*time.Millisecond)

	body := scrape(t, rec)
	assert.Contains(t, body, `carbon_predict_predictions_total{source="model"} 1`)
	assert.Contains(t, body, `carbon_predict_predictions_total{source="fallback"} 2`)
	assert.Contains(t, body, "carbon_predict_prediction_duration_seconds_count 3")
}

func TestRecorder_ObserveUpstreamError(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg, reg)

	rec.ObserveUpstreamError("rate_limited")
	rec.ObserveUpstreamError("rate_limited")
	rec.ObserveUpstreamError("payment_required")

	body := scrape(t, rec)
	assert.Contains(t, body, `carbon_predict_upstream_errors_total{kind="rate_limited"} 2`)
	assert.Contains(t, body, `carbon_predict_upstream_errors_total{kind="payment_required"} 1`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder

	assert.NotPanics(t, func() {
		rec.ObservePrediction("model", time.Second)
		rec.ObserveUpstreamError("upstream")
	})
	assert.NotNil(t, rec.Handler())
}

func TestNewRegistryRecorder_IncludesRuntimeCollectors(t *testing.T) {
	rec := NewRegistryRecorder()
	rec.ObservePrediction("fallback", time.Millisecond)

	body := scrape(t, rec)
	assert.Contains(t, body, `carbon_predict_predictions_total{source="fallback"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
