package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hncrawl/hncrawl/internal/report"
)

type stubReports struct {
	run *report.Run
}

func (s *stubReports) Latest() *report.Run { return s.run }

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubReports{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestReadyz_BeforeFirstCycle(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubReports{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReport_NotFoundBeforeFirstCycle(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubReports{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport_ReturnsLatestRun(t *testing.T) {
	t.Parallel()

	run := report.NewRun("run-42", 3, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	run.Add(report.Story{StoryID: "7", Status: report.StatusOK})
	srv := NewServer(&stubReports{run: run}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var decoded report.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Equal(t, "run-42", decoded.RunID)
	require.Equal(t, 3, decoded.Cycle)
	require.Contains(t, decoded.Stories, "7")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubReports{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.String())
}
