package stitch

import (
	"testing"
	"time"

	"github.com/jietuba/longstitch/internal/frame"
)

// scrollFrame builds a frame whose row y is a solid color keyed to content
// row startRow+y, so frames over the same content range agree pixel for
// pixel wherever they overlap.
func scrollFrame(t *testing.T, width, height, startRow int, seq uint64) *frame.Frame {
	t.Helper()
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		i := startRow + y
		r := byte((i * 8) % 256)
		g := byte(((i / 32) * 8) % 256)
		b := byte(((i / 1024) * 8) % 256)
		for x := 0; x < width; x++ {
			off := (y*width + x) * 4
			pix[off], pix[off+1], pix[off+2], pix[off+3] = r, g, b, 255
		}
	}
	f, err := frame.New(pix, width, height, seq, time.Time{}, frame.Rect{})
	if err != nil {
		t.Fatalf("scrollFrame: %v", err)
	}
	return f
}

// rowValue returns the expected red channel of content row i, matching
// scrollFrame's generator.
func rowValue(i int) byte {
	return byte((i * 8) % 256)
}

// stripeFrame paints stripes along the given axis, for frames that must be
// perceptually far from anything scrollFrame produces.
func stripeFrame(t *testing.T, width, height int, vertical bool) *frame.Frame {
	t.Helper()
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := byte(0)
			on := (y/8)%2 == 0
			if vertical {
				on = (x/8)%2 == 0
			}
			if on {
				v = 255
			}
			off := (y*width + x) * 4
			pix[off], pix[off+1], pix[off+2], pix[off+3] = v, v, v, 255
		}
	}
	f, err := frame.New(pix, width, height, 0, time.Time{}, frame.Rect{})
	if err != nil {
		t.Fatalf("stripeFrame: %v", err)
	}
	return f
}

func testConfig() Config {
	return Config{
		BandHeight:      1,
		MaxSearchOffset: 80,
		MinMovement:     4,
		IdleThreshold:   3,
		QueueSize:       4,
	}
}
