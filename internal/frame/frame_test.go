package frame

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(make([]byte, 16), 0, 1, 0, time.Time{}, Rect{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("zero width should be invalid, got %v", err)
	}
	if _, err := New(make([]byte, 16), 2, 0, 0, time.Time{}, Rect{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("zero height should be invalid, got %v", err)
	}
	if _, err := New(make([]byte, 10), 2, 2, 0, time.Time{}, Rect{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("short buffer should be invalid, got %v", err)
	}
	f, err := New(make([]byte, 16), 2, 2, 7, time.Time{}, Rect{})
	if err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}
	if !f.Valid() {
		t.Error("frame should be valid")
	}
	if f.Stride != 8 {
		t.Errorf("stride should be 8, got %d", f.Stride)
	}
	if f.Seq != 7 {
		t.Errorf("seq should be 7, got %d", f.Seq)
	}
}

func TestFromImageRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	f, err := FromImage(img, 1, time.Now())
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if f.Width != 3 || f.Height != 2 {
		t.Errorf("size should be 3x2, got %dx%d", f.Width, f.Height)
	}
	row := f.Row(1)
	if row[4] != 10 || row[5] != 20 || row[6] != 30 {
		t.Errorf("pixel (1,1) should be 10/20/30, got %d/%d/%d", row[4], row[5], row[6])
	}
}

func TestFromImageNonRGBA(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(2, 3, color.Gray{Y: 200})

	f, err := FromImage(img, 1, time.Now())
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	row := f.Row(3)
	if row[2*4] != 200 {
		t.Errorf("gray pixel should convert to R=200, got %d", row[2*4])
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(5, 5, 8, 9))

	f, err := FromImage(img, 1, time.Now())
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if f.Width != 3 || f.Height != 4 {
		t.Errorf("size should be 3x4, got %dx%d", f.Width, f.Height)
	}
}

func TestFromImageNil(t *testing.T) {
	if _, err := FromImage(nil, 0, time.Time{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("nil image should be invalid, got %v", err)
	}
}

func TestRotateRoundtrip(t *testing.T) {
	f, err := New([]byte{
		1, 1, 1, 255, 2, 2, 2, 255, 3, 3, 3, 255,
		4, 4, 4, 255, 5, 5, 5, 255, 6, 6, 6, 255,
	}, 3, 2, 0, time.Time{}, Rect{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := f.Rotate90()
	if r.Width != 2 || r.Height != 3 {
		t.Fatalf("rotated size should be 2x3, got %dx%d", r.Width, r.Height)
	}
	// Top-left of the original ends up top-right after a clockwise turn.
	if r.Row(0)[4] != 1 {
		t.Errorf("pixel (1,0) of rotated should be 1, got %d", r.Row(0)[4])
	}
	if r.Row(0)[0] != 4 {
		t.Errorf("pixel (0,0) of rotated should be 4, got %d", r.Row(0)[0])
	}

	back := r.Rotate270()
	if back.Width != f.Width || back.Height != f.Height {
		t.Fatalf("roundtrip size should be %dx%d, got %dx%d", f.Width, f.Height, back.Width, back.Height)
	}
	for i := range f.Pix {
		if back.Pix[i] != f.Pix[i] {
			t.Fatalf("roundtrip pixel mismatch at byte %d", i)
		}
	}
}

func TestNormalizeNoop(t *testing.T) {
	f, _ := New(make([]byte, 4*4*4), 4, 4, 0, time.Time{}, Rect{})
	if got := f.Normalize(4); got != f {
		t.Error("same-width normalize should return the frame unchanged")
	}
	if got := f.Normalize(0); got != f {
		t.Error("zero-width normalize should return the frame unchanged")
	}
}

func TestNormalizeResizes(t *testing.T) {
	f, _ := New(make([]byte, 8*6*4), 8, 6, 3, time.Time{}, Rect{})
	got := f.Normalize(4)
	if got.Width != 4 {
		t.Errorf("width should be 4, got %d", got.Width)
	}
	if got.Height != 3 {
		t.Errorf("height should scale to 3, got %d", got.Height)
	}
	if got.Seq != 3 {
		t.Errorf("seq should carry over, got %d", got.Seq)
	}
}

func TestImageSharesBuffer(t *testing.T) {
	f, _ := New(make([]byte, 2*2*4), 2, 2, 0, time.Time{}, Rect{})
	img := f.Image()
	img.Pix[0] = 99
	if f.Pix[0] != 99 {
		t.Error("Image should share the frame's pixel buffer")
	}
}
