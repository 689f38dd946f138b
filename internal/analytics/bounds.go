package analytics

import (
	"time"

	"github.com/saaga0h/lumos-platform/internal/store"
)

// DayBounds is the analysed window of one calendar day in unix seconds.
// Start is local midnight. End is "now" for the current day and the next
// local midnight otherwise, so DST days span 23 or 25 hours.
type DayBounds struct {
	Start int64
	End   int64
	Today bool
}

// NewDayBounds computes the bounds of day (YYYY-MM-DD) in loc relative to now
func NewDayBounds(day string, now time.Time, loc *time.Location) (DayBounds, error) {
	start, err := store.ParseDay(day, loc)
	if err != nil {
		return DayBounds{}, err
	}

	if day == store.DayKey(now, loc) {
		return DayBounds{Start: start.Unix(), End: now.Unix(), Today: true}, nil
	}
	return DayBounds{Start: start.Unix(), End: start.AddDate(0, 0, 1).Unix()}, nil
}

// Window returns the length of the bounds in seconds, never negative
func (b DayBounds) Window() int64 {
	if b.End < b.Start {
		return 0
	}
	return b.End - b.Start
}
