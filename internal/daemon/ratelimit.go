package daemon

import (
	"sync"
	"time"
)

// sessionLimiter caps how many files one session may submit within a rolling
// window. Sessions are identified by the X-Session-ID header when present,
// falling back to the client address.
type sessionLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string][]time.Time
}

func newSessionLimiter(limit int, window time.Duration) *sessionLimiter {
	return &sessionLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		sessions: make(map[string][]time.Time),
	}
}

// allow records one submission for the session and reports whether it fits
// under the limit. A limit of zero or below disables the check.
func (l *sessionLimiter) allow(session string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.sessions[session][:0]
	for _, stamp := range l.sessions[session] {
		if stamp.After(cutoff) {
			recent = append(recent, stamp)
		}
	}
	if len(recent) >= l.limit {
		l.sessions[session] = recent
		return false
	}
	l.sessions[session] = append(recent, now)

	// Drop stale sessions opportunistically so the map cannot grow without
	// bound under rotating session IDs.
	if len(l.sessions) > 1024 {
		for key, stamps := range l.sessions {
			if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
				delete(l.sessions, key)
			}
		}
	}
	return true
}
