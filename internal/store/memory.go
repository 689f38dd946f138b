package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process EventStore. It serializes writes and allows
// concurrent readers; nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	loc    *time.Location
	nextID int64
	events []MotionEvent
}

// NewMemoryStore creates an empty store deriving day/hour in loc
func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.Local
	}
	return &MemoryStore{loc: loc}
}

// Insert appends one event
func (s *MemoryStore) Insert(ctx context.Context, ts int64) (MotionEvent, error) {
	if err := ctx.Err(); err != nil {
		return MotionEvent{}, err
	}

	event := deriveEvent(ts, s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	event.ID = s.nextID
	s.events = append(s.events, event)

	return event, nil
}

// CountForDay returns the number of events for a day
func (s *MemoryStore) CountForDay(ctx context.Context, day string) (int64, error) {
	events, err := s.EventsForDay(ctx, day)
	if err != nil {
		return 0, err
	}
	return int64(len(events)), nil
}

// TotalCount returns the number of stored events
func (s *MemoryStore) TotalCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.events)), nil
}

// HourlyHistogram groups a day's events by their stored hour
func (s *MemoryStore) HourlyHistogram(ctx context.Context, day string) (map[int]int64, error) {
	events, err := s.EventsForDay(ctx, day)
	if err != nil {
		return nil, err
	}

	histogram := make(map[int]int64)
	for _, e := range events {
		histogram[e.Hour]++
	}
	return histogram, nil
}

// EventsForDay returns the events stored under day, ascending by timestamp
func (s *MemoryStore) EventsForDay(ctx context.Context, day string) ([]MotionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []MotionEvent
	for _, e := range s.events {
		if e.Day == day {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out, nil
}

// CountsForRange returns per-day counts for days in [startDay, endDay]
func (s *MemoryStore) CountsForRange(ctx context.Context, startDay, endDay string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Day keys are zero-padded ISO dates, so string order is calendar order
	counts := make(map[string]int64)
	for _, e := range s.events {
		if e.Day >= startDay && e.Day <= endDay {
			counts[e.Day]++
		}
	}
	return counts, nil
}

// RecentEvents returns events newest first
func (s *MemoryStore) RecentEvents(ctx context.Context, limit int) ([]MotionEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]MotionEvent, len(s.events))
	copy(out, s.events)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
