package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SQLClient is the subset of the Postgres client the store needs
type SQLClient interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error)
}

// PostgresStore persists motion events in the motion_events table
type PostgresStore struct {
	db     SQLClient
	loc    *time.Location
	logger *slog.Logger
}

// NewPostgresStore creates a store deriving day/hour in loc
func NewPostgresStore(db SQLClient, loc *time.Location, logger *slog.Logger) *PostgresStore {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		db:     db,
		loc:    loc,
		logger: logger,
	}
}

// Insert appends one event and returns it with its assigned ID
func (s *PostgresStore) Insert(ctx context.Context, ts int64) (MotionEvent, error) {
	event := deriveEvent(ts, s.loc)

	row, err := s.db.QueryRow(ctx,
		`INSERT INTO motion_events (timestamp, hour, day, tz) VALUES ($1, $2, $3, $4) RETURNING id`,
		event.Timestamp, event.Hour, event.Day, event.TZ)
	if err != nil {
		return MotionEvent{}, fmt.Errorf("failed to insert motion event: %w", err)
	}
	if err := row.Scan(&event.ID); err != nil {
		return MotionEvent{}, fmt.Errorf("failed to insert motion event: %w", err)
	}

	s.logger.Debug("Inserted motion event", "id", event.ID, "timestamp", ts, "day", event.Day, "hour", event.Hour)
	return event, nil
}

// CountForDay returns the number of events for a day
func (s *PostgresStore) CountForDay(ctx context.Context, day string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM motion_events WHERE day = $1`, day)
}

// TotalCount returns the number of stored events
func (s *PostgresStore) TotalCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM motion_events`)
}

func (s *PostgresStore) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	row, err := s.db.QueryRow(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count motion events: %w", err)
	}

	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count motion events: %w", err)
	}
	return total, nil
}

// HourlyHistogram groups a day's events by their stored hour
func (s *PostgresStore) HourlyHistogram(ctx context.Context, day string) (map[int]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT hour, COUNT(*)
		FROM motion_events
		WHERE day = $1
		GROUP BY hour
		ORDER BY hour ASC`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly histogram: %w", err)
	}
	defer rows.Close()

	histogram := make(map[int]int64)
	for rows.Next() {
		var hour int
		var total int64
		if err := rows.Scan(&hour, &total); err != nil {
			return nil, fmt.Errorf("failed to scan hourly histogram: %w", err)
		}
		histogram[hour] = total
	}
	return histogram, rows.Err()
}

// EventsForDay returns a day's events ascending by timestamp
func (s *PostgresStore) EventsForDay(ctx context.Context, day string) ([]MotionEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, timestamp, hour, day, tz
		FROM motion_events
		WHERE day = $1
		ORDER BY timestamp ASC, id ASC`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for %s: %w", day, err)
	}
	return scanEvents(rows)
}

// CountsForRange returns per-day counts for days in [startDay, endDay]
func (s *PostgresStore) CountsForRange(ctx context.Context, startDay, endDay string) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `
		SELECT day, COUNT(*)
		FROM motion_events
		WHERE day BETWEEN $1 AND $2
		GROUP BY day
		ORDER BY day ASC`, startDay, endDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var day string
		var total int64
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("failed to scan daily counts: %w", err)
		}
		counts[day] = total
	}
	return counts, rows.Err()
}

// RecentEvents returns events newest first; limit <= 0 returns all
func (s *PostgresStore) RecentEvents(ctx context.Context, limit int) ([]MotionEvent, error) {
	query := `
		SELECT id, timestamp, hour, day, tz
		FROM motion_events
		ORDER BY timestamp DESC, id DESC`

	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]MotionEvent, error) {
	defer rows.Close()

	var events []MotionEvent
	for rows.Next() {
		var e MotionEvent
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Hour, &e.Day, &e.TZ); err != nil {
			return nil, fmt.Errorf("failed to scan motion event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate motion events: %w", err)
	}
	return events, nil
}
