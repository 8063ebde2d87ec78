package stitch

import (
	"errors"

	"github.com/jietuba/longstitch/internal/frame"
)

// Sentinel errors surfaced by sessions. Everything except ErrAborted and an
// invalid first frame is recoverable: the session keeps running and the
// composite is never corrupted.
var (
	// ErrInvalidFrame reports malformed input (zero size, short buffer).
	ErrInvalidFrame = frame.ErrInvalid

	// ErrCompositeTooLarge means an append would exceed the configured
	// maximum composite length. The composite built so far is preserved.
	ErrCompositeTooLarge = errors.New("composite too large")

	// ErrSessionClosed means the session no longer accepts frames.
	ErrSessionClosed = errors.New("session closed")

	// ErrAborted means the session was cancelled and produced no output.
	ErrAborted = errors.New("session aborted")

	// ErrEmptySession means the session finalized before any frame was
	// accepted, so there is no composite to export.
	ErrEmptySession = errors.New("no frames captured")
)

// Reason classifies why a frame was rejected. Rejections are local: none of
// them are fatal to the session.
type Reason string

const (
	// ReasonNoMovement: the frame adds no new content (scroll saturated or
	// capture jitter). Drives the idle counter.
	ReasonNoMovement Reason = "no-movement"

	// ReasonDirectionReversal: the frame moved against the locked scroll
	// direction.
	ReasonDirectionReversal Reason = "direction-reversal"

	// ReasonUnrelatedFrame: no credible overlap with the previous frame.
	// The caller decides whether to keep feeding frames or abort.
	ReasonUnrelatedFrame Reason = "unrelated-frame"
)
