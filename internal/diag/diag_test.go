package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/observability"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	return NewServer(&conf.DiagSettings{Listen: "127.0.0.1:0"}, m)
}

func TestHealthzAllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.RegisterCheck(func() ComponentStatus {
		return ComponentStatus{Name: "motion", Healthy: true}
	})
	s.RegisterCheck(func() ComponentStatus {
		return ComponentStatus{Name: "detector", Healthy: true}
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status     string            `json:"status"`
		Components []ComponentStatus `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Len(t, body.Components, 2)
}

func TestHealthzDegraded(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.RegisterCheck(func() ComponentStatus {
		return ComponentStatus{Name: "detector", Healthy: false, Detail: "classifier unreachable"}
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
	assert.Contains(t, rec.Body.String(), "classifier unreachable")
}

func TestStatusIncludesCounts(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.SetStatusCounts(func() map[string]any {
		return map[string]any{
			"active_sightings": 42,
			"life_list":        17,
		}
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", http.NoBody)
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	counts, ok := body["counts"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, counts["active_sightings"])
	assert.Contains(t, body, "uptime_seconds")
	assert.Contains(t, body, "system")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}
