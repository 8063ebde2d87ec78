//go:build darwin

package screen

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

type darwinBackend struct{ tempDir string }

func (d *darwinBackend) captureRaw() []byte {
	tmpFile := filepath.Join(d.tempDir, "capture.png")
	cmd := exec.Command("screencapture", "-x", "-t", "png", "-m", tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screencapture failed", "error", err, "stderr", stderr.String())
		return nil
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		slog.Error("failed to read capture", "error", err)
		return nil
	}
	os.Remove(tmpFile)
	return data
}

func (d *darwinBackend) cleanup() {}

// New creates a platform-specific capturer for the given region.
func New(region Region) Capturer {
	tmpDir, err := os.MkdirTemp("", "longstitch-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		// Capture into the shared temp dir but never remove it on Close.
		return newBase(&darwinBackend{tempDir: os.TempDir()}, "", region)
	}
	return newBase(&darwinBackend{tempDir: tmpDir}, tmpDir, region)
}
