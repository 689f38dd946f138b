package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saaga0h/lumos-platform/internal/analytics"
	"github.com/saaga0h/lumos-platform/internal/collector"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/pkg/health"
	"github.com/saaga0h/lumos-platform/pkg/observability"
)

// DeviceStatusSource reads the last known device state
type DeviceStatusSource interface {
	Get(ctx context.Context) (collector.DeviceStatus, error)
}

// Server holds dependencies for API handlers
type Server struct {
	aggregator  *analytics.Aggregator
	store       store.EventStore
	device      DeviceStatusSource
	health      *health.Checker
	metrics     *observability.Metrics
	loc         *time.Location
	corsOrigins []string
	logger      *slog.Logger
}

// NewServer creates a new API server. device and metrics may be nil.
func NewServer(aggregator *analytics.Aggregator, es store.EventStore, device DeviceStatusSource, checker *health.Checker, metrics *observability.Metrics, loc *time.Location, corsOrigins []string, logger *slog.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		aggregator:  aggregator,
		store:       es,
		device:      device,
		health:      checker,
		metrics:     metrics,
		loc:         loc,
		corsOrigins: corsOrigins,
		logger:      logger,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health.HandlerFunc())
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))

		r.Method(http.MethodGet, "/health", s.metrics.WrapHandler("/api/health", s.health.DetailedHandlerFunc()))
		r.Method(http.MethodGet, "/metrics", s.metrics.WrapHandler("/api/metrics", http.HandlerFunc(s.handleMetrics)))
		r.Method(http.MethodGet, "/events", s.metrics.WrapHandler("/api/events", http.HandlerFunc(s.handleListEvents)))
		r.Method(http.MethodGet, "/events/export", s.metrics.WrapHandler("/api/events/export", http.HandlerFunc(s.handleExportCSV)))
		r.Method(http.MethodGet, "/events/export.xlsx", s.metrics.WrapHandler("/api/events/export.xlsx", http.HandlerFunc(s.handleExportXLSX)))
		r.Method(http.MethodGet, "/device", s.metrics.WrapHandler("/api/device", http.HandlerFunc(s.handleDevice)))
	})

	return r
}

// requestLogger logs each request at debug level
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// respondError writes an error JSON response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
