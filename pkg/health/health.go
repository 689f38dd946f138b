package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Probe checks one dependency; a nil error means healthy
type Probe func(ctx context.Context) error

// Detail values reported per dependency
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDisabled = "disabled"
)

// Checker provides liveness and dependency health endpoints
type Checker struct {
	mu      sync.RWMutex
	names   []string
	probes  map[string]Probe
	timeout time.Duration
	logger  *slog.Logger
}

// NewChecker creates a health checker with no probes
func NewChecker(logger *slog.Logger) *Checker {
	return &Checker{
		probes:  make(map[string]Probe),
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Register adds a named probe. A nil probe is reported as disabled.
func (h *Checker) Register(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.probes[name]; !exists {
		h.names = append(h.names, name)
	}
	h.probes[name] = probe
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Check runs every probe and returns the overall status and per-probe details
func (h *Checker) Check(ctx context.Context) (string, map[string]string) {
	h.mu.RLock()
	names := append([]string(nil), h.names...)
	probes := make(map[string]Probe, len(h.probes))
	for k, v := range h.probes {
		probes[k] = v
	}
	h.mu.RUnlock()

	status := StatusOK
	details := make(map[string]string, len(names))

	for _, name := range names {
		probe := probes[name]
		if probe == nil {
			details[name] = StatusDisabled
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := probe(probeCtx)
		cancel()

		if err != nil {
			h.logger.Warn("Health probe failed", "dependency", name, "error", err)
			details[name] = StatusError
			status = StatusError
			continue
		}
		details[name] = StatusOK
	}

	return status, details
}

// HandlerFunc returns a liveness handler that does not touch dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    StatusOK,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that runs every probe. Any failing
// dependency yields status "error" and 503.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, details := h.Check(r.Context())

		code := http.StatusOK
		if status != StatusOK {
			code = http.StatusServiceUnavailable
		}

		h.write(w, code, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Details:   details,
		})
	}
}

func (h *Checker) write(w http.ResponseWriter, code int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
