package analytics

import "math"

// Session is a maximal run of events whose consecutive gaps stay within the
// session gap
type Session struct {
	StartTS         int64 `json:"startTs"`
	EndTS           int64 `json:"endTs"`
	DurationSeconds int64 `json:"durationSeconds"`
}

// SessionSummary is the per-day session section of a report
type SessionSummary struct {
	Count                  int   `json:"count"`
	AverageDurationSeconds int64 `json:"averageDurationSeconds"`
	MaxDurationSeconds     int64 `json:"maxDurationSeconds"`
}

// SessionBuilder groups a day's ordered timestamps into presence sessions
type SessionBuilder struct {
	gap int64
}

// NewSessionBuilder creates a session builder
func NewSessionBuilder(settings Settings) *SessionBuilder {
	return &SessionBuilder{gap: settings.SessionGapSeconds}
}

// Build segments ascending timestamps. Two events belong to the same session
// when their gap is at most the session gap.
func (b *SessionBuilder) Build(timestamps []int64) []Session {
	if len(timestamps) == 0 {
		return []Session{}
	}

	sessions := make([]Session, 0, 4)
	start, end := timestamps[0], timestamps[0]

	for _, ts := range timestamps[1:] {
		if ts-end <= b.gap {
			end = ts
			continue
		}
		sessions = append(sessions, newSession(start, end))
		start, end = ts, ts
	}

	return append(sessions, newSession(start, end))
}

func newSession(start, end int64) Session {
	return Session{StartTS: start, EndTS: end, DurationSeconds: end - start}
}

// Summarize reduces sessions to count, mean duration and longest duration.
// The mean is rounded to the nearest integer, halves to even.
func Summarize(sessions []Session) SessionSummary {
	if len(sessions) == 0 {
		return SessionSummary{}
	}

	var total, longest int64
	for _, s := range sessions {
		total += s.DurationSeconds
		if s.DurationSeconds > longest {
			longest = s.DurationSeconds
		}
	}

	return SessionSummary{
		Count:                  len(sessions),
		AverageDurationSeconds: int64(math.RoundToEven(float64(total) / float64(len(sessions)))),
		MaxDurationSeconds:     longest,
	}
}
