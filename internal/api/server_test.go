package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/saaga0h/lumos-platform/internal/analytics"
	"github.com/saaga0h/lumos-platform/internal/clock"
	"github.com/saaga0h/lumos-platform/internal/collector"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/health"
	"github.com/saaga0h/lumos-platform/pkg/observability"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeDevice struct {
	status collector.DeviceStatus
	err    error
}

func (f *fakeDevice) Get(ctx context.Context) (collector.DeviceStatus, error) {
	return f.status, f.err
}

// brokenStore fails every read
type brokenStore struct {
	*store.MemoryStore
}

var errBroken = errors.New("store unavailable")

func (brokenStore) TotalCount(ctx context.Context) (int64, error) { return 0, errBroken }

func (brokenStore) RecentEvents(ctx context.Context, limit int) ([]store.MotionEvent, error) {
	return nil, errBroken
}

func newTestServer(t *testing.T, es store.EventStore, device DeviceStatusSource) (*httptest.Server, *observability.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	settings := analytics.DefaultSettings()
	settings.Location = time.UTC
	metrics := observability.NewMetrics()
	agg := analytics.NewAggregator(es, clock.Fixed(testNow), settings, metrics, logger)

	checker := health.NewChecker(logger)
	checker.Register("db", func(ctx context.Context) error { return nil })

	srv := NewServer(agg, es, device, checker, metrics, time.UTC, []string{"*"}, logger)
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	return ts, metrics
}

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	es := store.NewMemoryStore(time.UTC)
	base := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC).Unix()
	for i := int64(0); i < 3; i++ {
		_, err := es.Insert(context.Background(), base+i*60)
		require.NoError(t, err)
	}
	return es
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t, seededStore(t), nil)

	tests := []struct {
		name          string
		query         string
		expectedCode  int
		expectedDay   string
		expectedToday int64
	}{
		{name: "defaults to today", query: "", expectedCode: http.StatusOK, expectedDay: "2024-05-10", expectedToday: 3},
		{name: "explicit past day", query: "?day=2024-05-09", expectedCode: http.StatusOK, expectedDay: "2024-05-09", expectedToday: 0},
		{name: "invalid day", query: "?day=10.05.2024", expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/api/metrics"+tt.query)
			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			if tt.expectedCode != http.StatusOK {
				assert.Contains(t, string(body), "error")
				return
			}

			var report analytics.Report
			require.NoError(t, json.Unmarshal(body, &report))
			assert.Equal(t, tt.expectedDay, report.Day)
			assert.Equal(t, tt.expectedToday, report.ActivitiesToday)
			assert.Equal(t, int64(3), report.TotalDetections)
		})
	}
}

func TestServer_MetricsFallbackOnStoreFailure(t *testing.T) {
	ts, _ := newTestServer(t, brokenStore{store.NewMemoryStore(time.UTC)}, nil)

	resp, body := get(t, ts.URL+"/api/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, float64(0), report["totalDetections"])
	assert.Equal(t, "N/A", report["peakHours"])
}

func TestServer_ListEvents(t *testing.T) {
	ts, _ := newTestServer(t, seededStore(t), nil)

	t.Run("newest first with limit", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/api/events?limit=2")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var events []EventView
		require.NoError(t, json.Unmarshal(body, &events))
		require.Len(t, events, 2)
		assert.Equal(t, int64(3), events[0].ID)
		assert.Equal(t, "2024-05-10T08:02:00Z", events[0].DatetimeISO)
		assert.Equal(t, 8, events[0].Hour)
		assert.Equal(t, "2024-05-10", events[0].Day)
	})

	t.Run("bad limit", func(t *testing.T) {
		resp, _ := get(t, ts.URL+"/api/events?limit=ten")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_ListEventsStoreFailure(t *testing.T) {
	ts, _ := newTestServer(t, brokenStore{store.NewMemoryStore(time.UTC)}, nil)

	resp, body := get(t, ts.URL+"/api/events")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Failed to list events")
}

func TestServer_ExportCSV(t *testing.T) {
	ts, _ := newTestServer(t, seededStore(t), nil)

	resp, body := get(t, ts.URL+"/api/events/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment; filename=motion_events.csv", resp.Header.Get("Content-Disposition"))

	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id", "timestamp", "datetime_iso", "hour", "day"}, records[0])
	assert.Equal(t, "3", records[1][0])
	assert.Equal(t, "2024-05-10T08:02:00Z", records[1][2])
}

func TestServer_ExportXLSX(t *testing.T) {
	ts, _ := newTestServer(t, seededStore(t), nil)

	resp, body := get(t, ts.URL+"/api/events/export.xlsx?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=motion_events.xlsx", resp.Header.Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "2024-05-10", rows[1][4])
}

func TestServer_Device(t *testing.T) {
	at := testNow.Unix()
	tests := []struct {
		name         string
		device       DeviceStatusSource
		expectedCode int
		expectedBody string
	}{
		{
			name:         "not configured",
			device:       nil,
			expectedCode: http.StatusNotFound,
			expectedBody: "not available",
		},
		{
			name:         "known status",
			device:       &fakeDevice{status: collector.DeviceStatus{Status: "online", StatusAt: &at}},
			expectedCode: http.StatusOK,
			expectedBody: `"status":"online"`,
		},
		{
			name:         "redis failure",
			device:       &fakeDevice{err: errors.New("connection refused")},
			expectedCode: http.StatusInternalServerError,
			expectedBody: "Failed to read device status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, seededStore(t), tt.device)
			resp, body := get(t, ts.URL+"/api/device")
			assert.Equal(t, tt.expectedCode, resp.StatusCode)
			assert.Contains(t, string(body), tt.expectedBody)
		})
	}
}

func TestServer_HealthAndPrometheus(t *testing.T) {
	ts, _ := newTestServer(t, seededStore(t), nil)

	resp, _ := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts.URL+"/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"db":"ok"`)

	get(t, ts.URL+"/api/metrics")
	resp, body = get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `lumos_http_requests_total{route="/api/metrics",status="200"}`))
	assert.Contains(t, string(body), "lumos_metrics_reports_total")
}

func TestServer_CORS(t *testing.T) {
	ts, _ := newTestServer(t, seededStore(t), nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.local")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
