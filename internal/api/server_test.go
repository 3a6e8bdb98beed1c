package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ccstats/internal/coordinator"
	"github.com/roach88/ccstats/internal/row"
	"github.com/roach88/ccstats/internal/usage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEngine struct {
	status  coordinator.Status
	healthy bool
	checks  int
}

func (f *fakeEngine) Status() coordinator.Status { return f.status }

func (f *fakeEngine) HealthCheck(ctx context.Context) bool {
	f.checks++
	return f.healthy
}

type fakeReports struct {
	days   int
	daily  *usage.DailyStatsResponse
	events []row.Row
	report *usage.Report
	err    error
}

func (f *fakeReports) DailyStats(ctx context.Context, days int) (*usage.DailyStatsResponse, error) {
	f.days = days
	return f.daily, f.err
}

func (f *fakeReports) RecentEvents(ctx context.Context) ([]row.Row, error) {
	return f.events, f.err
}

func (f *fakeReports) Summary(ctx context.Context) (*usage.Report, error) {
	return f.report, f.err
}

func (f *fakeReports) Sources() usage.Sources {
	return usage.Sources{ProjectsDir: "/home/dev/.claude/projects"}
}

func newTestServer(t *testing.T, engine *fakeEngine, reports *fakeReports) http.Handler {
	t.Helper()
	s, err := NewServer(engine, reports)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s.Handler()
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	engine := &fakeEngine{
		status:  coordinator.Status{QueueLength: 2, IsProcessing: true, IsInitialized: true},
		healthy: true,
	}
	h := newTestServer(t, engine, &fakeReports{})

	rec, body := get(t, h, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "2025-03-10T12:00:00.000Z", body["timestamp"])
	assert.Equal(t, map[string]any{
		"queueLength":   float64(2),
		"isProcessing":  true,
		"isInitialized": true,
		"healthy":       true,
	}, body["duckdb"])
	assert.Equal(t, 1, engine.checks)
}

func TestHealth_Unhealthy(t *testing.T) {
	h := newTestServer(t, &fakeEngine{}, &fakeReports{})

	rec, body := get(t, h, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, false, body["duckdb"].(map[string]any)["healthy"])
}

func sampleDaily() *usage.DailyStatsResponse {
	rows := []row.Row{{
		"date":              row.String("2025-03-10"),
		"sessions":          row.Int(2),
		"totalInteractions": row.Int(4),
		"inputTokens":       row.Int(10),
		"firstActivity":     row.String("2025-03-10 09:00:00"),
	}}
	return usage.BuildDailyStats(rows, 30, "/home/dev/.claude/projects", time.Now(), time.Millisecond)
}

func TestDailyStats_DaysParameter(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 30},
		{query: "?days=7", want: 7},
		{query: "?days=0", want: 1},
		{query: "?days=9000", want: 365},
		{query: "?days=abc", want: 30},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			reports := &fakeReports{daily: sampleDaily()}
			h := newTestServer(t, &fakeEngine{}, reports)

			rec, body := get(t, h, "/api/daily-stats"+tt.query)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, reports.days)
			assert.Len(t, body["dailyStats"], 1)
		})
	}
}

func TestDailyStats_ResponseMatchesSchema(t *testing.T) {
	s, err := NewServer(&fakeEngine{}, &fakeReports{})
	require.NoError(t, err)

	assert.NoError(t, s.validator.Validate(sampleDaily()))
	assert.NoError(t, s.validator.Validate(usage.BuildDailyStats(nil, 30, "/x", time.Now(), 0)))

	err = s.validator.Validate(map[string]any{"dailyStats": "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid against schema")
}

func TestDailyStats_MissingDirectory(t *testing.T) {
	reports := &fakeReports{err: fmt.Errorf("%w: /home/dev/.claude/projects", usage.ErrNoProjectsDir)}
	h := newTestServer(t, &fakeEngine{}, reports)

	rec, body := get(t, h, "/api/daily-stats")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []any{}, body["dailyStats"])
	assert.Contains(t, body["error"], "claude logs directory not found")
}

func TestDailyStats_QueryFailureIncludesEngineStatus(t *testing.T) {
	engine := &fakeEngine{status: coordinator.Status{QueueLength: 3, IsInitialized: true}}
	reports := &fakeReports{err: errors.New("daily stats: QUERY_FAILED: query failed")}
	h := newTestServer(t, engine, reports)

	rec, body := get(t, h, "/api/daily-stats")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []any{}, body["dailyStats"])
	assert.Equal(t, "daily stats: QUERY_FAILED: query failed", body["error"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(0), meta["count"])
	assert.Equal(t, "/home/dev/.claude/projects", meta["source"])
	assert.Equal(t, map[string]any{
		"queueLength":   float64(3),
		"isProcessing":  false,
		"isInitialized": true,
	}, meta["duckdbStatus"])
}

func TestEvents(t *testing.T) {
	reports := &fakeReports{events: []row.Row{
		{"event_type": row.String("assistant"), "input_tokens": row.Int(12)},
	}}
	h := newTestServer(t, &fakeEngine{}, reports)

	rec, body := get(t, h, "/api/events")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{map[string]any{"event_type": "assistant", "input_tokens": float64(12)}}, body["events"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["count"])
	assert.Equal(t, "/home/dev/.claude/projects", meta["source"])
}

func TestEvents_Empty(t *testing.T) {
	h := newTestServer(t, &fakeEngine{}, &fakeReports{})

	rec, body := get(t, h, "/api/events")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["events"])
}

func TestEvents_Errors(t *testing.T) {
	h := newTestServer(t, &fakeEngine{}, &fakeReports{err: usage.ErrNoProjectsDir})
	rec, _ := get(t, h, "/api/events")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h = newTestServer(t, &fakeEngine{}, &fakeReports{err: errors.New("boom")})
	rec, body := get(t, h, "/api/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", body["error"])
}

func TestSummary(t *testing.T) {
	reports := &fakeReports{report: &usage.Report{
		Tokens:       usage.TokenTotals{Input: 1, Total: 1},
		TotalCostUSD: 4.5,
		Projects:     []usage.ProjectCost{{Project: "alpha", Path: "/src/alpha", CostUSD: 4.5}},
	}}
	h := newTestServer(t, &fakeEngine{}, reports)

	rec, body := get(t, h, "/api/summary")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.5, body["totalCostUsd"])
	assert.NotContains(t, body, "hooks")
	assert.Len(t, body["projects"], 1)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeEngine{healthy: true}, &fakeReports{})
	get(t, h, "/api/health")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ccstats_http_requests_total")
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	s, err := NewServer(&fakeEngine{healthy: true}, &fakeReports{})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serveListener(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
