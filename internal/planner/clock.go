package planner

import (
	"sync"
	"time"

	"github.com/reelplanner/backend/internal/models"
)

// Clock hands out strictly increasing timestamps. When the wall clock stalls
// or steps backwards the next reading is the previous one plus a nanosecond.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last models.Timestamp
}

// NewClock returns a Clock reading from now, or time.Now when now is nil.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now returns the next timestamp.
func (c *Clock) Now() models.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := models.TimestampOf(c.now())
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}
