package limiter

import (
	"sync"
	"time"
)

// SlidingWindow admits at most limit events per identity within a trailing
// window. State is process-local and resets on restart. The clock is
// injectable for tests.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events map[string][]time.Time
	now    func() time.Time
}

// New creates a sliding-window limiter
func New(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// NewWithClock creates a limiter with a custom clock, used in tests
func NewWithClock(limit int, window time.Duration, now func() time.Time) *SlidingWindow {
	l := New(limit, window)
	l.now = now
	return l
}

// Allow reports whether the identity may proceed, recording the event when
// admitted. Denied calls do not consume capacity.
func (l *SlidingWindow) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.events[identity][:0]
	for _, t := range l.events[identity] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.events[identity] = kept
		return false
	}

	l.events[identity] = append(kept, now)
	return true
}
