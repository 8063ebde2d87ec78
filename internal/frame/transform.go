package frame

import "github.com/nfnt/resize"

// Normalize resamples the frame to the given width, preserving aspect ratio.
// Frames already at the target width are returned unchanged. Off-width frames
// happen when the capture region is resized mid-session; everything downstream
// assumes a single composite width.
func (f *Frame) Normalize(width int) *Frame {
	if f.Width == width || width <= 0 {
		return f
	}
	height := int(float64(f.Height)*float64(width)/float64(f.Width) + 0.5)
	if height < 1 {
		height = 1
	}
	scaled := resize.Resize(uint(width), uint(height), f.Image(), resize.Lanczos3)
	nf, err := FromImage(scaled, f.Seq, f.Timestamp)
	if err != nil {
		return f
	}
	nf.Rect = f.Rect
	return nf
}

// Rotate90 returns the frame rotated 90 degrees clockwise. Horizontal scroll
// sessions rotate frames on ingest so the engine always stitches along the
// vertical axis.
func (f *Frame) Rotate90() *Frame {
	w, h := f.Height, f.Width
	pix := make([]byte, w*h*4)
	stride := w * 4
	for y := 0; y < f.Height; y++ {
		src := f.Row(y)
		// Source row y becomes destination column w-1-y.
		dx := (w - 1 - y) * 4
		for x := 0; x < f.Width; x++ {
			copy(pix[x*stride+dx:x*stride+dx+4], src[x*4:x*4+4])
		}
	}
	return &Frame{Pix: pix, Stride: stride, Width: w, Height: h, Seq: f.Seq, Timestamp: f.Timestamp, Rect: f.Rect}
}

// Rotate270 is the inverse of Rotate90, used when exporting a horizontal
// composite back to its natural orientation.
func (f *Frame) Rotate270() *Frame {
	w, h := f.Height, f.Width
	pix := make([]byte, w*h*4)
	stride := w * 4
	for y := 0; y < f.Height; y++ {
		src := f.Row(y)
		for x := 0; x < f.Width; x++ {
			// Destination row is h-1-x, destination column is y.
			dy := h - 1 - x
			copy(pix[dy*stride+y*4:dy*stride+y*4+4], src[x*4:x*4+4])
		}
	}
	return &Frame{Pix: pix, Stride: stride, Width: w, Height: h, Seq: f.Seq, Timestamp: f.Timestamp, Rect: f.Rect}
}
