// Package frame defines the captured frame value type consumed by the
// stitching engine. Frames are RGBA8 snapshots of the scroll region and are
// treated as immutable once constructed.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"
)

// ErrInvalid reports a malformed frame (zero size or short pixel buffer).
var ErrInvalid = errors.New("invalid frame")

// Rect is the capture rectangle in the scrolling region's coordinate space.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Frame is an immutable RGBA8 snapshot. Pix holds 4 bytes per pixel with
// Stride bytes per row.
type Frame struct {
	Pix       []byte
	Stride    int
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
	Rect      Rect
}

// New validates dimensions and wraps the pixel buffer without copying.
func New(pix []byte, width, height int, seq uint64, ts time.Time, rect Rect) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalid, width, height)
	}
	stride := width * 4
	if len(pix) < stride*height {
		return nil, fmt.Errorf("%w: pixel buffer %d bytes, need %d", ErrInvalid, len(pix), stride*height)
	}
	return &Frame{
		Pix:       pix,
		Stride:    stride,
		Width:     width,
		Height:    height,
		Seq:       seq,
		Timestamp: ts,
		Rect:      rect,
	}, nil
}

// FromImage converts any decoded image into a frame.
func FromImage(img image.Image, seq uint64, ts time.Time) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalid)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalid, b.Dx(), b.Dy())
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		rgba = dst
	}
	return New(rgba.Pix, b.Dx(), b.Dy(), seq, ts, Rect{Width: b.Dx(), Height: b.Dy()})
}

// Valid reports whether a frame carries usable pixel data.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) >= f.Stride*f.Height
}

// Row returns the pixel bytes for row y without copying.
func (f *Frame) Row(y int) []byte {
	off := y * f.Stride
	return f.Pix[off : off+f.Width*4 : off+f.Width*4]
}

// Image wraps the frame as an *image.RGBA sharing the same pixel buffer.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Stride,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}
