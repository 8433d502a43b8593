package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/port-traffic-monitor/internal/adapter/httpadapter"
	"github.com/couchcryptid/port-traffic-monitor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMonitor struct {
	ports []string
	run   *domain.MonitoringRun
}

func (m *mockMonitor) CheckReadiness(_ context.Context) error {
	if m.run == nil {
		return errors.New("no monitoring run has completed yet")
	}
	return nil
}

func (m *mockMonitor) Ports() []string { return m.ports }

func (m *mockMonitor) Latest() (domain.MonitoringRun, bool) {
	if m.run == nil {
		return domain.MonitoringRun{}, false
	}
	return *m.run, true
}

var finished = time.Date(2024, 4, 30, 9, 0, 5, 0, time.UTC)

func completedRun() *domain.MonitoringRun {
	return &domain.MonitoringRun{
		ID:         "run-1",
		StartedAt:  finished.Add(-5 * time.Second),
		FinishedAt: finished,
		Ports: []domain.PortOutcome{
			{
				Port: "Naples",
				Report: &domain.PortReport{
					Port:             "Naples",
					Source:           "cache",
					Vessels:          []domain.Vessel{{MMSI: 1}, {MMSI: 2}},
					CapacityAnalysis: domain.CapacityReport{MaxBerths: 1, PotentialCongestion: true},
				},
			},
			{Port: "Salerno", Error: "arrival windows for Salerno: invalid parameters"},
		},
	}
}

func newTestServer(run *domain.MonitoringRun) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockMonitor{
		ports: []string{"Naples", "Salerno", "Civitavecchia"},
		run:   run,
	}, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns503BeforeFirstRun(t *testing.T) {
	rec := get(t, newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no monitoring run has completed yet", body["error"])
}

func TestReadyzReturns200AfterRun(t *testing.T) {
	rec := get(t, newTestServer(completedRun()), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ready", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

type portsBody struct {
	RunID      string     `json:"run_id"`
	FinishedAt *time.Time `json:"finished_at"`
	Ports      []struct {
		Port                string `json:"port"`
		Status              string `json:"status"`
		Source              string `json:"source"`
		Vessels             int    `json:"vessels"`
		PotentialCongestion bool   `json:"potential_congestion"`
		Error               string `json:"error"`
	} `json:"ports"`
}

func TestPorts_BeforeFirstRun(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/ports")
	require.Equal(t, http.StatusOK, rec.Code)

	var body portsBody
	decode(t, rec, &body)
	assert.Empty(t, body.RunID)
	assert.Nil(t, body.FinishedAt)
	require.Len(t, body.Ports, 3)
	for _, p := range body.Ports {
		assert.Equal(t, "pending", p.Status)
	}
}

func TestPorts_SummarizesLatestRun(t *testing.T) {
	rec := get(t, newTestServer(completedRun()), "/api/ports")
	require.Equal(t, http.StatusOK, rec.Code)

	var body portsBody
	decode(t, rec, &body)
	assert.Equal(t, "run-1", body.RunID)
	require.NotNil(t, body.FinishedAt)
	assert.True(t, finished.Equal(*body.FinishedAt))
	require.Len(t, body.Ports, 3)

	naples := body.Ports[0]
	assert.Equal(t, "Naples", naples.Port)
	assert.Equal(t, "ok", naples.Status)
	assert.Equal(t, "cache", naples.Source)
	assert.Equal(t, 2, naples.Vessels)
	assert.True(t, naples.PotentialCongestion)

	assert.Equal(t, "error", body.Ports[1].Status)
	assert.Contains(t, body.Ports[1].Error, "invalid parameters")

	// Configured after the run started.
	assert.Equal(t, "Civitavecchia", body.Ports[2].Port)
	assert.Equal(t, "pending", body.Ports[2].Status)
}

func TestPort(t *testing.T) {
	tests := []struct {
		name   string
		run    *domain.MonitoringRun
		path   string
		status int
	}{
		{"report", completedRun(), "/api/ports/Naples", http.StatusOK},
		{"case insensitive", completedRun(), "/api/ports/naples", http.StatusOK},
		{"failed port", completedRun(), "/api/ports/Salerno", http.StatusServiceUnavailable},
		{"not in latest run", completedRun(), "/api/ports/Civitavecchia", http.StatusServiceUnavailable},
		{"no run yet", nil, "/api/ports/Naples", http.StatusServiceUnavailable},
		{"unknown port", completedRun(), "/api/ports/Genoa", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(tt.run), tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPort_ReturnsReport(t *testing.T) {
	rec := get(t, newTestServer(completedRun()), "/api/ports/Naples")
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.PortReport
	decode(t, rec, &report)
	assert.Equal(t, "Naples", report.Port)
	assert.Len(t, report.Vessels, 2)
	assert.True(t, report.CapacityAnalysis.PotentialCongestion)
}

func TestPort_FailedPortReturnsError(t *testing.T) {
	rec := get(t, newTestServer(completedRun()), "/api/ports/Salerno")

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Salerno", body["port"])
	assert.Contains(t, body["error"], "invalid parameters")
	assert.NotContains(t, body, "report")
}

func TestLatestRun(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/runs/latest")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, newTestServer(completedRun()), "/api/runs/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var run domain.MonitoringRun
	decode(t, rec, &run)
	assert.Equal(t, "run-1", run.ID)
	require.Len(t, run.Ports, 2)
	assert.Nil(t, run.Ports[1].Report)
}
