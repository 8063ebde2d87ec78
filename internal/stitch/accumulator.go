package stitch

import (
	"fmt"
	"image"

	"github.com/jietuba/longstitch/internal/frame"
)

// Axis is the direction along which frames overlap.
type Axis int

const (
	AxisVertical Axis = iota
	AxisHorizontal
)

func (a Axis) String() string {
	if a == AxisHorizontal {
		return "horizontal"
	}
	return "vertical"
}

// Composite is the accumulated output image. It grows along the scroll axis
// while a session is capturing and freezes once the session finalizes.
// Horizontal sessions build in rotated space and rotate back on export.
type Composite struct {
	pix    []byte
	width  int
	length int
	axis   Axis
	dir    int
}

// Length is the logical extent along the scroll axis, in rows.
func (c *Composite) Length() int { return c.length }

// Width is the extent across the scroll axis.
func (c *Composite) Width() int { return c.width }

// Axis reports the axis the composite was built along.
func (c *Composite) Axis() Axis { return c.axis }

// Direction is the locked scroll direction the composite was built in.
func (c *Composite) Direction() int { return c.dir }

// Image exports the composite, restoring the natural orientation for
// horizontal sessions. Straight pixel copy throughout: the output is a faithful
// reconstruction, never a blend.
func (c *Composite) Image() *image.RGBA {
	f := &frame.Frame{
		Pix:    c.pix,
		Stride: c.width * 4,
		Width:  c.width,
		Height: c.length,
	}
	if c.axis == AxisHorizontal {
		f = f.Rotate270()
	}
	return f.Image()
}

// Accumulator owns the growing composite and enforces the length cap.
type Accumulator struct {
	comp      *Composite
	maxLength int
}

// NewAccumulator seeds the composite with the first frame in full.
func NewAccumulator(first *frame.Frame, axis Axis, maxLength int) *Accumulator {
	pix := make([]byte, 0, len(first.Pix)*2)
	for y := 0; y < first.Height; y++ {
		pix = append(pix, first.Row(y)...)
	}
	return &Accumulator{
		comp:      &Composite{pix: pix, width: first.Width, length: first.Height, axis: axis},
		maxLength: maxLength,
	}
}

// Append concatenates the slice of f onto the composite along the scroll
// axis: at the trailing edge for forward scrolling, the leading edge for
// reversed. An append that would exceed the configured maximum is rejected
// whole with ErrCompositeTooLarge and the composite is left untouched.
func (a *Accumulator) Append(f *frame.Frame, s Slice, dir int) error {
	if f.Width != a.comp.width {
		return fmt.Errorf("%w: frame width %d, composite width %d", ErrInvalidFrame, f.Width, a.comp.width)
	}
	if s.Rows <= 0 || s.Start < 0 || s.Start+s.Rows > f.Height {
		return fmt.Errorf("%w: slice [%d,%d) outside frame of %d rows", ErrInvalidFrame, s.Start, s.Start+s.Rows, f.Height)
	}
	if a.maxLength > 0 && a.comp.length+s.Rows > a.maxLength {
		return fmt.Errorf("%w: %d+%d rows exceeds cap %d", ErrCompositeTooLarge, a.comp.length, s.Rows, a.maxLength)
	}

	rowBytes := a.comp.width * 4
	if dir < 0 {
		grown := make([]byte, 0, len(a.comp.pix)+s.Rows*rowBytes)
		for y := s.Start; y < s.Start+s.Rows; y++ {
			grown = append(grown, f.Row(y)...)
		}
		a.comp.pix = append(grown, a.comp.pix...)
	} else {
		for y := s.Start; y < s.Start+s.Rows; y++ {
			a.comp.pix = append(a.comp.pix, f.Row(y)...)
		}
	}
	a.comp.length += s.Rows
	a.comp.dir = dir
	return nil
}

// Composite exposes the accumulated image.
func (a *Accumulator) Composite() *Composite { return a.comp }
