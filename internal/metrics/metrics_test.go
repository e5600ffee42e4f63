package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestRecordWebhookEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWebhookEvent("checkout.session.completed", "applied")
	c.RecordWebhookEvent("checkout.session.completed", "applied")
	c.RecordWebhookEvent("checkout.session.completed", "duplicate")

	mf := find(t, reg, "nextmeal_webhook_events_total")
	require.Len(t, mf.GetMetric(), 2)

	counts := map[string]float64{}
	for _, m := range mf.GetMetric() {
		counts[labelValue(m, "outcome")] = m.GetCounter().GetValue()
	}
	assert.Equal(t, 2.0, counts["applied"])
	assert.Equal(t, 1.0, counts["duplicate"])
}

func TestRecordGateDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGateDecision("allow")

	mf := find(t, reg, "nextmeal_gate_decisions_total")
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, "allow", labelValue(mf.GetMetric()[0], "decision"))
	assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
}

func TestRecordMealPlanLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMealPlanLatency(1500*time.Millisecond, true)
	c.RecordMealPlanLatency(time.Second, false)

	mf := find(t, reg, "nextmeal_mealplan_generation_seconds")
	require.Len(t, mf.GetMetric(), 2)
	for _, m := range mf.GetMetric() {
		assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(http.StatusTeapot)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `nextmeal_http_responses_total{status_code="418"} 1`)
}
