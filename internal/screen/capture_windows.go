//go:build windows

package screen

import (
	"log/slog"
	"os"
)

type windowsBackend struct{ tempDir string }

func (w *windowsBackend) captureRaw() []byte {
	// TODO: implement using Windows GDI or DXGI
	slog.Warn("Windows screen capture not yet implemented")
	return nil
}

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific capturer for the given region.
func New(region Region) Capturer {
	tmpDir, err := os.MkdirTemp("", "longstitch-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		return newBase(&windowsBackend{tempDir: os.TempDir()}, "", region)
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir, region)
}
