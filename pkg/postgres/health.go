package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HealthStatus describes the database as seen by the event store
type HealthStatus struct {
	Connected     bool      `json:"connected"`
	ServerVersion string    `json:"server_version,omitempty"`
	Database      string    `json:"database"`
	EventRows     int64     `json:"event_rows"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HealthCheck pings the database and reports its version and event row count.
// Problems are reported in HealthStatus.Error, never as the returned error.
func (c *PostgresClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := HealthStatus{
		Database:  c.config.PostgresDB,
		Timestamp: time.Now(),
	}

	if c.db == nil {
		status.Error = "not connected"
		return &status, nil
	}

	if err := c.db.PingContext(ctx); err != nil {
		status.Error = fmt.Sprintf("ping failed: %v", err)
		return &status, nil
	}
	status.Connected = true

	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&status.ServerVersion); err != nil {
		status.Error = fmt.Sprintf("failed to get version: %v", err)
		return &status, nil
	}

	// Fails until migrations have created the table
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM motion_events").Scan(&status.EventRows); err != nil {
		status.Error = fmt.Sprintf("failed to count events: %v", err)
	}

	return &status, nil
}

// Probe adapts HealthCheck to a pass/fail dependency probe
func (c *PostgresClient) Probe(ctx context.Context) error {
	status, err := c.HealthCheck(ctx)
	if err != nil {
		return err
	}
	if status.Error != "" {
		return errors.New(status.Error)
	}

	c.logger.Debug("Postgres healthy",
		"database", status.Database,
		"event_rows", status.EventRows)
	return nil
}
