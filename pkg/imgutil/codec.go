package imgutil

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
)

// Decode decodes a PNG or JPEG buffer, rejecting anything else up front so
// malformed frames fail before reaching the engine.
func Decode(data []byte) (image.Image, error) {
	kind, err := Detect(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindPNG:
		return png.Decode(bytes.NewReader(data))
	case KindJPEG:
		return jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported image format")
	}
}

// DecodeFile loads and decodes an image file.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SavePNG writes img to a file, creating or truncating it.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
