package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/saaga0h/lumos-platform/internal/store"
)

const (
	defaultListLimit   = 10
	defaultExportLimit = 1000
)

// EventView is one motion event as listed by the API
type EventView struct {
	ID          int64  `json:"id"`
	Timestamp   int64  `json:"timestamp"`
	DatetimeISO string `json:"datetimeIso"`
	Hour        int    `json:"hour"`
	Day         string `json:"day"`
}

// handleMetrics serves the metrics report of ?day= (default today). Store
// failures still answer 200 with the fixed default report.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = s.aggregator.Today()
	}

	result := s.aggregator.BuildForDay(r.Context(), day)
	if errors.Is(result.Err, store.ErrInvalidDay) {
		s.respondError(w, http.StatusBadRequest, result.Err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result.Report)
}

// handleListEvents lists the most recent events, ?limit= (default 10)
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, ok := s.recentEvents(w, r, defaultListLimit)
	if !ok {
		return
	}

	views := make([]EventView, 0, len(events))
	zones := newZoneCache(s.loc)
	for _, e := range events {
		views = append(views, EventView{
			ID:          e.ID,
			Timestamp:   e.Timestamp,
			DatetimeISO: zones.format(e),
			Hour:        e.Hour,
			Day:         e.Day,
		})
	}

	s.respondJSON(w, http.StatusOK, views)
}

// handleExportCSV streams recent events as CSV, ?limit= (default 1000)
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	events, ok := s.recentEvents(w, r, defaultExportLimit)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=motion_events.csv")
	w.WriteHeader(http.StatusOK)

	if err := writeCSV(w, events, newZoneCache(s.loc)); err != nil {
		s.logger.Error("Failed to write CSV export", "error", err)
	}
}

// handleExportXLSX returns recent events as a spreadsheet, ?limit= (default 1000)
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	events, ok := s.recentEvents(w, r, defaultExportLimit)
	if !ok {
		return
	}

	data, err := buildWorkbook(events, newZoneCache(s.loc))
	if err != nil {
		s.logger.Error("Failed to build XLSX export", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to export XLSX")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=motion_events.xlsx")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write XLSX export", "error", err)
	}
}

// handleDevice returns the last known device status
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if s.device == nil {
		s.respondError(w, http.StatusNotFound, "Device status is not available")
		return
	}

	status, err := s.device.Get(r.Context())
	if err != nil {
		s.logger.Error("Failed to read device status", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to read device status")
		return
	}

	s.respondJSON(w, http.StatusOK, status)
}

// recentEvents parses ?limit= and loads events, writing the error response
// itself when it returns false
func (s *Server) recentEvents(w http.ResponseWriter, r *http.Request, defaultLimit int) ([]store.MotionEvent, bool) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "limit must be an integer")
			return nil, false
		}
		limit = n
	}

	events, err := s.store.RecentEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list events", "limit", limit, "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to list events")
		return nil, false
	}
	return events, true
}

// zoneCache renders event times in the timezone persisted with each event
type zoneCache struct {
	fallback *time.Location
	zones    map[string]*time.Location
}

func newZoneCache(fallback *time.Location) *zoneCache {
	return &zoneCache{
		fallback: fallback,
		zones:    map[string]*time.Location{fallback.String(): fallback},
	}
}

func (z *zoneCache) location(name string) *time.Location {
	if loc, ok := z.zones[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = z.fallback
	}
	z.zones[name] = loc
	return loc
}

func (z *zoneCache) format(e store.MotionEvent) string {
	return e.Time(z.location(e.TZ)).Format(time.RFC3339)
}
