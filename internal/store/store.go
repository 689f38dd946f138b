package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DayLayout is the calendar-day key format persisted with every event
const DayLayout = "2006-01-02"

// ErrInvalidDay is returned when a day key does not match DayLayout
var ErrInvalidDay = errors.New("invalid day")

// MotionEvent is one recorded motion trigger. Hour and Day are derived from
// Timestamp once, at insert time, in the location named by TZ.
type MotionEvent struct {
	ID        int64  `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Hour      int    `json:"hour"`
	Day       string `json:"day"`
	TZ        string `json:"tz"`
}

// Time returns the event timestamp as a time in the given location
func (e MotionEvent) Time(loc *time.Location) time.Time {
	return time.Unix(e.Timestamp, 0).In(loc)
}

// EventStore is the append-only motion event log consumed by the analytics engine
type EventStore interface {
	// Insert appends one event, deriving hour and day from ts in the store's location
	Insert(ctx context.Context, ts int64) (MotionEvent, error)

	// CountForDay returns the number of events recorded for a day
	CountForDay(ctx context.Context, day string) (int64, error)

	// TotalCount returns the number of events ever recorded
	TotalCount(ctx context.Context) (int64, error)

	// HourlyHistogram returns event counts per hour for a day, only hours with events
	HourlyHistogram(ctx context.Context, day string) (map[int]int64, error)

	// EventsForDay returns a day's events ordered by timestamp ascending
	EventsForDay(ctx context.Context, day string) ([]MotionEvent, error)

	// CountsForRange returns per-day counts for the inclusive range, only days with events
	CountsForRange(ctx context.Context, startDay, endDay string) (map[string]int64, error)

	// RecentEvents returns events newest first; limit <= 0 returns all of them
	RecentEvents(ctx context.Context, limit int) ([]MotionEvent, error)
}

// DayKey formats t as a day key in loc
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// ParseDay parses a day key as local midnight in loc
func ParseDay(day string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDay, day)
	}
	return t, nil
}

// deriveEvent fills the write-time fields of an event
func deriveEvent(ts int64, loc *time.Location) MotionEvent {
	t := time.Unix(ts, 0).In(loc)
	return MotionEvent{
		Timestamp: ts,
		Hour:      t.Hour(),
		Day:       t.Format(DayLayout),
		TZ:        loc.String(),
	}
}
