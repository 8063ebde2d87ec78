// Package overlap finds the best-aligning offset between two consecutive
// frames of a scroll capture. Candidate offsets come from sliding band
// signatures; the winning candidate is confirmed pixel-by-pixel before it is
// reported. This is the engine's hot path.
package overlap

import (
	"github.com/jietuba/longstitch/internal/frame"
	"github.com/jietuba/longstitch/internal/signature"
)

// Method records how a result was produced.
type Method int

const (
	// MethodSignature means the offset was settled on signatures alone
	// (only the zero-advance shortcut qualifies).
	MethodSignature Method = iota
	// MethodPixel means the offset survived the pixel confirmation pass.
	MethodPixel
)

func (m Method) String() string {
	if m == MethodPixel {
		return "pixel-confirmed"
	}
	return "signature-only"
}

// Result is the alignment between a previous and a new frame. Offset is the
// scroll advance in rows: 0 means no movement, negative means the content
// moved opposite to the nominal scroll direction. The overlap between the
// frames is the frame length minus the advance.
type Result struct {
	Offset     int
	Confidence float64
	Method     Method
}

// Params bundles the matcher tunables.
type Params struct {
	BandHeight  int
	RightMargin int
	// MaxOffset is the largest advance, in rows, that is searched. Frames
	// farther apart than this are reported as unrelated.
	MaxOffset int
	// SignatureThreshold is the minimum matching-band ratio for a candidate
	// to reach pixel confirmation.
	SignatureThreshold float64
	// PixelTolerance is the per-channel tolerance of the confirmation pass.
	PixelTolerance int
	// PixelThreshold is the minimum in-tolerance pixel ratio for the
	// confirmation pass to accept a candidate.
	PixelThreshold float64
	// ConfirmRows caps how many overlap rows the confirmation pass samples.
	ConfirmRows int
}

// Match aligns next against prev. The second return value is false when no
// candidate clears both the signature and pixel gates, i.e. the frames are
// unrelated as far as the matcher can tell.
func Match(prev, next *frame.Frame, p Params) (Result, bool) {
	if !prev.Valid() || !next.Valid() || prev.Width != next.Width {
		return Result{}, false
	}
	bh := p.BandHeight
	if bh < 1 {
		bh = 1
	}
	sp := signature.Params{BandHeight: bh, RightMargin: p.RightMargin}
	prevSig := signature.Compute(prev, sp)
	nextSig := signature.Compute(next, sp)

	maxBands := p.MaxOffset / bh

	// Forward candidates, largest advance first: on a score tie the larger
	// advance wins, assuming maximal new content. Under-counting the overlap
	// duplicates bands in the composite, which is the worse failure.
	bestScore := 0.0
	bestAdv := 0
	found := false
	limit := maxBands
	if limit > len(prevSig)-1 {
		limit = len(prevSig) - 1
	}
	for s := limit; s >= 0; s-- {
		score, compared := scoreShift(prevSig, nextSig, s)
		if compared == 0 {
			continue
		}
		if score > bestScore {
			bestScore, bestAdv, found = score, s*bh, true
		}
	}
	// Reversed candidates: the new frame trails the previous one.
	limit = maxBands
	if limit > len(nextSig)-1 {
		limit = len(nextSig) - 1
	}
	for s := limit; s >= 1; s-- {
		score, compared := scoreShift(nextSig, prevSig, s)
		if compared == 0 {
			continue
		}
		if score > bestScore {
			bestScore, bestAdv, found = score, -s*bh, true
		}
	}

	if !found || bestScore < p.SignatureThreshold {
		return Result{}, false
	}
	if bestAdv == 0 {
		return Result{Offset: 0, Confidence: bestScore, Method: MethodSignature}, true
	}

	adv, ok := confirm(prev, next, bestAdv, bh, p)
	if !ok {
		return Result{}, false
	}
	return Result{Offset: adv, Confidence: bestScore, Method: MethodPixel}, true
}

// scoreShift compares a shifted by s bands against b and returns the
// matching-band ratio over the overlapping span.
func scoreShift(a, b []uint64, s int) (float64, int) {
	n := len(a) - s
	if len(b) < n {
		n = len(b)
	}
	if n <= 0 {
		return 0, 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if a[s+i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(n), n
}

// confirm runs the pixel pass around the candidate advance, refining it
// within the band when bands are taller than one row. Returns the refined
// advance and whether any refinement cleared the pixel threshold.
func confirm(prev, next *frame.Frame, adv, bh int, p Params) (int, bool) {
	lo, hi := adv-(bh-1), adv+(bh-1)
	bestAdv, bestRatio := 0, -1.0
	for k := hi; k >= lo; k-- {
		if k == 0 || abs(k) > p.MaxOffset || (k > 0) != (adv > 0) {
			continue
		}
		ratio := pixelRatio(prev, next, k, p)
		if ratio > bestRatio {
			bestRatio, bestAdv = ratio, k
		}
	}
	if bestRatio < p.PixelThreshold {
		return 0, false
	}
	return bestAdv, true
}

// pixelRatio measures the in-tolerance pixel fraction over the overlap
// implied by advance k, sampling at most ConfirmRows rows.
func pixelRatio(prev, next *frame.Frame, k int, p Params) float64 {
	base, moved := prev, next
	if k < 0 {
		base, moved, k = next, prev, -k
	}
	m := base.Height - k
	if moved.Height < m {
		m = moved.Height
	}
	if m <= 0 {
		return 0
	}
	samples := p.ConfirmRows
	if samples <= 0 || samples > m {
		samples = m
	}
	width := base.Width - p.RightMargin
	if width < 1 {
		width = base.Width
	}
	tol := p.PixelTolerance

	matched, total := 0, 0
	for j := 0; j < samples; j++ {
		i := j * m / samples
		a := base.Row(k + i)
		b := moved.Row(i)
		for x := 0; x < width; x++ {
			if within(a[x*4], b[x*4], tol) &&
				within(a[x*4+1], b[x*4+1], tol) &&
				within(a[x*4+2], b[x*4+2], tol) {
				matched++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

func within(a, b byte, tol int) bool {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
