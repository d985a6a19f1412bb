package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/rickb777/date/v2/timespan"
)

type TimeSpan = timespan.TimeSpan

// Entry pairs a token with the run currently registered under it.
type Entry struct {
	ID      any
	RunID   uuid.UUID
	Handle  Handle
	Started time.Time
}

// Span is the time the run has been registered, up to now.
func (e Entry) Span(now time.Time) TimeSpan {
	return timespan.BetweenTimes(e.Started, now)
}
