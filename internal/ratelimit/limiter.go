package ratelimit

import (
	"time"
)

// window is the trailing span a Limiter counts captures over.
const window = 60 * time.Second

// Limiter bounds accepted captures to a fixed count per trailing minute.
// It is owned by the single capture loop and is not safe for concurrent
// use; state is rebuilt from zero on restart, so the bound is soft across
// process restarts.
type Limiter struct {
	limit  int
	recent []time.Time
}

// New creates a Limiter allowing limit captures per minute. A limit of 0
// disables limiting entirely.
func New(limit int) *Limiter {
	return &Limiter{limit: limit}
}

// Limit returns the configured per-minute ceiling.
func (l *Limiter) Limit() int {
	return l.limit
}

// TryConsume reports whether a capture at now is within the limit, and
// records it if so. Timestamps arrive in non-decreasing order, so expired
// entries are always at the front and eviction stops at the first live one.
// When the limit is 0 nothing is recorded, keeping state empty while
// limiting is disabled.
func (l *Limiter) TryConsume(now time.Time) bool {
	if l.limit == 0 {
		return true
	}
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.recent) && l.recent[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.recent = append(l.recent[:0], l.recent[i:]...)
	}
	if len(l.recent) >= l.limit {
		return false
	}
	l.recent = append(l.recent, now)
	return true
}
