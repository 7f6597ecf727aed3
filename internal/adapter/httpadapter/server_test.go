package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-atlas/internal/adapter/httpadapter"
	"github.com/couchcryptid/climate-atlas/internal/adapter/render"
	"github.com/couchcryptid/climate-atlas/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockMaps []domain.MapResult

func (m mockMaps) Latest() []domain.MapResult { return m }

func winterMap() domain.MapResult {
	return domain.MapResult{
		ID:         "winter-wind",
		Title:      "Vent moyen en hiver",
		Metric:     "winter.wind_speed_max",
		Categories: []domain.Category{{Label: "Calme", Color: "#E3F2FD"}, {Label: "Venteux", Color: "#1565C0"}},
		Values:     map[domain.RegionCode]float64{"29": 32, "38": 14},
		Classification: domain.Classification{
			Breaks:      domain.Breaks{Min: 14, Upper: []float64{14, 32}},
			Assignments: map[domain.RegionCode]int{"29": 1, "38": 0},
		},
		GeneratedAt: time.Date(2024, 7, 8, 12, 0, 0, 0, time.UTC),
	}
}

func newTestServer(readyErr error, maps ...domain.MapResult) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, mockMaps(maps), slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no map has been published yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no map has been published yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMapsListing(t *testing.T) {
	srv := newTestServer(nil, winterMap())
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maps", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "winter-wind", body[0]["id"])
	assert.Equal(t, "winter.wind_speed_max", body[0]["metric"])
}

func TestMapsListingEmptyBeforeFirstRun(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maps", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMapByID(t *testing.T) {
	srv := newTestServer(nil, winterMap())
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maps/winter-wind", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var doc render.MapDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "winter-wind", doc.ID)
	require.Len(t, doc.Regions, 2)
	assert.Equal(t, "Venteux", doc.Regions[0].Label)
	assert.Equal(t, "Calme", doc.Regions[1].Label)
}

func TestMapByIDNotFound(t *testing.T) {
	srv := newTestServer(nil, winterMap())
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/maps/summer-wind", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown map summer-wind")
}
