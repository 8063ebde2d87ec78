// Package signature computes compact band fingerprints used for overlap
// search and duplicate detection. Each fingerprint summarizes a horizontal
// band of rows by its quantized mean channel values, so sub-pixel
// anti-aliasing jitter between captures maps to the same value.
package signature

import "github.com/jietuba/longstitch/internal/frame"

// Mixing multipliers and quantization step carried over from the row-hash
// accelerator this package replaces.
const (
	mulR = 73856093
	mulG = 19349663
	mulB = 83492791

	// QuantStep is the channel quantization step. Mean channel values are
	// rounded down to a multiple of this before hashing, which is also the
	// natural pixel-comparison tolerance for confirmation passes.
	QuantStep = 8
)

// Params controls signature computation.
type Params struct {
	// BandHeight is the number of rows per band. The last band may be
	// shorter.
	BandHeight int
	// RightMargin excludes that many rightmost pixels from every band, so a
	// moving scrollbar does not perturb the fingerprints.
	RightMargin int
}

// Compute returns one fingerprint per band. It is a pure function of the
// frame's pixels: identical pixels (or pixels within the quantization
// tolerance) produce identical signatures.
func Compute(f *frame.Frame, p Params) []uint64 {
	if f == nil || f.Height == 0 {
		return nil
	}
	bh := p.BandHeight
	if bh < 1 {
		bh = 1
	}
	width := f.Width - p.RightMargin
	if width < 1 {
		width = f.Width
	}

	n := (f.Height + bh - 1) / bh
	sigs := make([]uint64, n)
	for b := 0; b < n; b++ {
		top := b * bh
		bottom := top + bh
		if bottom > f.Height {
			bottom = f.Height
		}
		sigs[b] = bandHash(f, top, bottom, width)
	}
	return sigs
}

// bandHash averages each channel over the band, quantizes, and mixes.
func bandHash(f *frame.Frame, top, bottom, width int) uint64 {
	var rSum, gSum, bSum uint64
	for y := top; y < bottom; y++ {
		row := f.Row(y)
		for x := 0; x < width; x++ {
			rSum += uint64(row[x*4])
			gSum += uint64(row[x*4+1])
			bSum += uint64(row[x*4+2])
		}
	}
	count := uint64(bottom-top) * uint64(width)
	if count == 0 {
		return 0
	}
	rMean := (rSum / count) / QuantStep * QuantStep
	gMean := (gSum / count) / QuantStep * QuantStep
	bMean := (bSum / count) / QuantStep * QuantStep
	return rMean*mulR + gMean*mulG + bMean*mulB
}
