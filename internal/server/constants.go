// Package server provides HTTP and WebSocket handlers for frame ingest
package server

import "time"

const (
	// Frame rate limiting per connection (sliding window)
	RateLimitFrames = 60
	RateLimitWindow = time.Second

	// MaxFrameBytes caps a single encoded frame message.
	MaxFrameBytes = 32 << 20
)
