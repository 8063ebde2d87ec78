package server

import (
	"sync"
	"time"
)

// rateLimiter tracks frame timestamps using a sliding window.
type rateLimiter struct {
	max    int
	window time.Duration

	mu         sync.Mutex
	timestamps []time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{max: max, window: window}
}

// allow checks if a frame is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	// Prune old timestamps
	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= r.max {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}
