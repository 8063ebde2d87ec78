// Package stitch assembles overlapping scroll-capture frames into a single
// composite image.
package stitch

// Engine defaults. All of these can be overridden per session via Config.
const (
	// DefaultBandHeight is the signature band height in rows.
	DefaultBandHeight = 4

	// DefaultMaxSearchOffset bounds the overlap search in rows.
	DefaultMaxSearchOffset = 600

	// DefaultMinMovement is the smallest advance counted as real scrolling.
	DefaultMinMovement = 4

	// DefaultIdleThreshold is how many consecutive no-movement frames imply
	// end of content.
	DefaultIdleThreshold = 5

	// DefaultMaxCompositeLength caps the composite along the scroll axis.
	DefaultMaxCompositeLength = 30000

	// DefaultSignatureThreshold is the minimum matching-band ratio.
	DefaultSignatureThreshold = 0.85

	// DefaultPixelThreshold is the minimum in-tolerance pixel ratio for the
	// confirmation pass.
	DefaultPixelThreshold = 0.90

	// DefaultConfirmRows caps how many rows the confirmation pass samples.
	DefaultConfirmRows = 48

	// DefaultQueueSize bounds the frame queue between producer and worker.
	DefaultQueueSize = 16

	// DefaultMaxHashDistance is the perception-hash Hamming distance under
	// which two frames count as the same screen.
	DefaultMaxHashDistance = 5
)
