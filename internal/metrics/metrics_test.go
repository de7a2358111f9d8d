package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_RegistersMetrics は全メトリクスがレジストリに登録されることをテストする。
func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDutyStarted()
	c.RecordDutyEnded("manual")
	c.RecordReminderSent()
	c.RecordReminderTimeout()
	c.RecordPointsAwarded(5)
	c.RecordNotifyFailure("direct")
	c.IncActiveSessions()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}

	want := map[string]bool{
		"dutyman_duty_started_total":     false,
		"dutyman_duty_ended_total":       false,
		"dutyman_reminders_sent_total":   false,
		"dutyman_reminder_timeout_total": false,
		"dutyman_points_awarded_total":   false,
		"dutyman_notify_fail_total":      false,
		"dutyman_active_sessions":        false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("metric %s was not registered", name)
		}
	}
}

// TestCollector_ActiveSessionsGauge はゲージの増減をテストする。
func TestCollector_ActiveSessionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.IncActiveSessions()
	c.IncActiveSessions()
	c.DecActiveSessions()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "dutyman_active_sessions" {
			continue
		}
		got := mf.GetMetric()[0].GetGauge().GetValue()
		if got != 1 {
			t.Errorf("active_sessions = %v, want 1", got)
		}
		return
	}
	t.Fatal("dutyman_active_sessions not found")
}

// TestHandler_ServesMetrics は/metricsハンドラーがPrometheus形式で応答することをテストする。
func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordDutyStarted()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dutyman_duty_started_total 1") {
		t.Errorf("response body does not contain counter value:\n%s", rec.Body.String())
	}
}
