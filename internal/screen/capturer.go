// Package screen provides platform-agnostic capture of the scroll region for
// live stitching sessions.
package screen

import (
	"crypto/md5"
	"image"
	"image/draw"
	"log/slog"
	"os"

	"github.com/jietuba/longstitch/pkg/imgutil"
)

// Region is the screen rectangle to capture. A zero-size region means the
// whole display.
type Region struct {
	X, Y          int
	Width, Height int
}

// Capturer produces frames of the capture region with cheap change
// detection: unchanged screens are filtered before the engine ever sees
// them.
type Capturer interface {
	Capture() (image.Image, bool)
	Close()
}

// backend implements platform-specific raw capture, returning encoded image
// bytes of the full display.
type backend interface {
	captureRaw() []byte
	cleanup()
}

// baseCapturer provides shared hash-based change detection and region
// cropping on top of a backend.
type baseCapturer struct {
	backend
	region   Region
	lastHash [16]byte
	tempDir  string
}

func newBase(b backend, tempDir string, region Region) *baseCapturer {
	return &baseCapturer{backend: b, tempDir: tempDir, region: region}
}

// Capture grabs the region. The bool is false when the screen has not
// changed since the previous call (hash of the leading bytes matches) or the
// capture failed.
func (c *baseCapturer) Capture() (image.Image, bool) {
	data := c.captureRaw()
	if data == nil {
		return nil, false
	}
	hash := md5.Sum(data[:min(len(data), 4096)])
	if hash == c.lastHash {
		return nil, false
	}
	c.lastHash = hash

	img, err := imgutil.Decode(data)
	if err != nil {
		slog.Error("failed to decode capture", "error", err)
		return nil, false
	}
	return c.crop(img), true
}

func (c *baseCapturer) crop(img image.Image) image.Image {
	if c.region.Width <= 0 || c.region.Height <= 0 {
		return img
	}
	r := image.Rect(c.region.X, c.region.Y, c.region.X+c.region.Width, c.region.Y+c.region.Height)
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

func (c *baseCapturer) Close() {
	c.cleanup()
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
