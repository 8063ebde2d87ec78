package stitch

import (
	"github.com/corona10/goimagehash"

	"github.com/jietuba/longstitch/internal/frame"
	"github.com/jietuba/longstitch/internal/overlap"
)

// Slice is the portion of an accepted frame that is strictly beyond the
// overlap with the previous one, the only rows the accumulator may append.
type Slice struct {
	Start int
	Rows  int
}

// Decision is the filter's verdict on a frame.
type Decision struct {
	Accept bool
	Reason Reason
	Slice  Slice
	// Dir is the locked scroll direction after this frame: +1 forward,
	// -1 reversed, 0 still unlocked.
	Dir int
}

// Filter decides whether an aligned frame contributes new content.
type Filter struct {
	minMovement     int
	maxHashDistance int
}

// NewFilter creates a deduplication filter.
func NewFilter(minMovement, maxHashDistance int) *Filter {
	if minMovement < 1 {
		minMovement = 1
	}
	if maxHashDistance < 0 {
		maxHashDistance = DefaultMaxHashDistance
	}
	return &Filter{minMovement: minMovement, maxHashDistance: maxHashDistance}
}

// Evaluate applies the acceptance policy. res/matched come from the matcher,
// prev is the last accepted frame, dir the currently locked direction
// (0 = unlocked).
func (fl *Filter) Evaluate(res overlap.Result, matched bool, prev, next *frame.Frame, dir int) Decision {
	if !matched {
		// Band alignment failed. A frame can still be a pure repeat that
		// merely confused the matcher (e.g. an animation crossing a band
		// boundary), so fall back to a whole-frame perceptual comparison
		// before declaring the frames unrelated.
		if fl.similar(prev, next) {
			return Decision{Reason: ReasonNoMovement, Dir: dir}
		}
		return Decision{Reason: ReasonUnrelatedFrame, Dir: dir}
	}

	adv := res.Offset
	if abs(adv) < fl.minMovement {
		return Decision{Reason: ReasonNoMovement, Dir: dir}
	}

	sign := 1
	if adv < 0 {
		sign = -1
	}
	if dir == 0 {
		dir = sign
	} else if sign != dir {
		return Decision{Reason: ReasonDirectionReversal, Dir: dir}
	}

	slice, ok := newSlice(prev, next, adv)
	if !ok {
		return Decision{Reason: ReasonNoMovement, Dir: dir}
	}
	return Decision{Accept: true, Slice: slice, Dir: dir}
}

// newSlice computes the rows of next beyond the overlap implied by adv.
// Frame heights may differ, so a positive advance can still yield nothing
// new when the new frame is much shorter.
func newSlice(prev, next *frame.Frame, adv int) (Slice, bool) {
	if adv < 0 {
		// Reversed scroll: new content is the leading rows.
		k := -adv
		if k > next.Height {
			k = next.Height
		}
		return Slice{Start: 0, Rows: k}, k > 0
	}
	start := prev.Height - adv
	if start < 0 {
		start = 0
	}
	rows := next.Height - start
	if rows <= 0 {
		return Slice{}, false
	}
	return Slice{Start: start, Rows: rows}, true
}

// similar reports whether two frames are perceptually the same screen.
func (fl *Filter) similar(prev, next *frame.Frame) bool {
	if !prev.Valid() || !next.Valid() {
		return false
	}
	a, err := goimagehash.PerceptionHash(prev.Image())
	if err != nil {
		return false
	}
	b, err := goimagehash.PerceptionHash(next.Image())
	if err != nil {
		return false
	}
	dist, err := a.Distance(b)
	if err != nil {
		return false
	}
	return dist <= fl.maxHashDistance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
