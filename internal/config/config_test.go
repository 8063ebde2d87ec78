package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Clear environment
	envVars := []string{
		"HTTP_ADDR", "BAND_HEIGHT", "MAX_SEARCH_OFFSET", "MIN_MOVEMENT",
		"IDLE_THRESHOLD", "MAX_COMPOSITE_LENGTH", "PIXEL_TOLERANCE",
		"SIGNATURE_THRESHOLD", "PIXEL_THRESHOLD", "CONFIRM_ROWS",
		"MAX_HASH_DISTANCE", "SCROLLBAR_MARGIN", "FRAME_QUEUE_SIZE",
		"CAPTURE_RATE",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Check defaults
	if cfg.HTTPAddr != ":8600" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8600")
	}
	if cfg.BandHeight != 4 {
		t.Errorf("BandHeight = %d, want %d", cfg.BandHeight, 4)
	}
	if cfg.MaxSearchOffset != 600 {
		t.Errorf("MaxSearchOffset = %d, want %d", cfg.MaxSearchOffset, 600)
	}
	if cfg.MinMovement != 4 {
		t.Errorf("MinMovement = %d, want %d", cfg.MinMovement, 4)
	}
	if cfg.IdleThreshold != 5 {
		t.Errorf("IdleThreshold = %d, want %d", cfg.IdleThreshold, 5)
	}
	if cfg.MaxCompositeLength != 30000 {
		t.Errorf("MaxCompositeLength = %d, want %d", cfg.MaxCompositeLength, 30000)
	}
	if cfg.PixelTolerance != 8 {
		t.Errorf("PixelTolerance = %d, want %d", cfg.PixelTolerance, 8)
	}
	if cfg.SignatureThreshold != 0.85 {
		t.Errorf("SignatureThreshold = %f, want %f", cfg.SignatureThreshold, 0.85)
	}
	if cfg.PixelThreshold != 0.90 {
		t.Errorf("PixelThreshold = %f, want %f", cfg.PixelThreshold, 0.90)
	}
	if cfg.ConfirmRows != 48 {
		t.Errorf("ConfirmRows = %d, want %d", cfg.ConfirmRows, 48)
	}
	if cfg.MaxHashDistance != 5 {
		t.Errorf("MaxHashDistance = %d, want %d", cfg.MaxHashDistance, 5)
	}
	if cfg.ScrollbarMargin != 20 {
		t.Errorf("ScrollbarMargin = %d, want %d", cfg.ScrollbarMargin, 20)
	}
	if cfg.QueueSize != 16 {
		t.Errorf("QueueSize = %d, want %d", cfg.QueueSize, 16)
	}
	if cfg.CaptureRate != 5.0 {
		t.Errorf("CaptureRate = %f, want %f", cfg.CaptureRate, 5.0)
	}
}

func TestLoadWithEnv(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9600")
	os.Setenv("BAND_HEIGHT", "8")
	os.Setenv("MAX_SEARCH_OFFSET", "1200")
	os.Setenv("SIGNATURE_THRESHOLD", "0.75")
	os.Setenv("PIXEL_THRESHOLD", "0.80")
	os.Setenv("CONFIRM_ROWS", "32")
	os.Setenv("MAX_HASH_DISTANCE", "8")
	os.Setenv("CAPTURE_RATE", "2.5")
	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("BAND_HEIGHT")
		os.Unsetenv("MAX_SEARCH_OFFSET")
		os.Unsetenv("SIGNATURE_THRESHOLD")
		os.Unsetenv("PIXEL_THRESHOLD")
		os.Unsetenv("CONFIRM_ROWS")
		os.Unsetenv("MAX_HASH_DISTANCE")
		os.Unsetenv("CAPTURE_RATE")
	}()

	cfg := Load()

	if cfg.HTTPAddr != ":9600" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9600")
	}
	if cfg.BandHeight != 8 {
		t.Errorf("BandHeight = %d, want %d", cfg.BandHeight, 8)
	}
	if cfg.MaxSearchOffset != 1200 {
		t.Errorf("MaxSearchOffset = %d, want %d", cfg.MaxSearchOffset, 1200)
	}
	if cfg.SignatureThreshold != 0.75 {
		t.Errorf("SignatureThreshold = %f, want %f", cfg.SignatureThreshold, 0.75)
	}
	if cfg.PixelThreshold != 0.80 {
		t.Errorf("PixelThreshold = %f, want %f", cfg.PixelThreshold, 0.80)
	}
	if cfg.ConfirmRows != 32 {
		t.Errorf("ConfirmRows = %d, want %d", cfg.ConfirmRows, 32)
	}
	if cfg.MaxHashDistance != 8 {
		t.Errorf("MaxHashDistance = %d, want %d", cfg.MaxHashDistance, 8)
	}
	if cfg.CaptureRate != 2.5 {
		t.Errorf("CaptureRate = %f, want %f", cfg.CaptureRate, 2.5)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	// Test getEnv
	os.Setenv("TEST_STRING", "hello")
	defer os.Unsetenv("TEST_STRING")
	if v := getEnv("TEST_STRING", "default"); v != "hello" {
		t.Errorf("getEnv = %q, want %q", v, "hello")
	}
	if v := getEnv("NONEXISTENT", "default"); v != "default" {
		t.Errorf("getEnv = %q, want %q", v, "default")
	}

	// Test getEnvInt
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")
	if v := getEnvInt("TEST_INT", 0); v != 42 {
		t.Errorf("getEnvInt = %d, want %d", v, 42)
	}
	if v := getEnvInt("NONEXISTENT", 99); v != 99 {
		t.Errorf("getEnvInt = %d, want %d", v, 99)
	}
	os.Setenv("TEST_INT_INVALID", "not-a-number")
	defer os.Unsetenv("TEST_INT_INVALID")
	if v := getEnvInt("TEST_INT_INVALID", 100); v != 100 {
		t.Errorf("getEnvInt with invalid = %d, want %d", v, 100)
	}

	// Test getEnvFloat
	os.Setenv("TEST_FLOAT", "3.14")
	defer os.Unsetenv("TEST_FLOAT")
	if v := getEnvFloat("TEST_FLOAT", 0.0); v != 3.14 {
		t.Errorf("getEnvFloat = %f, want %f", v, 3.14)
	}
	if v := getEnvFloat("NONEXISTENT", 2.71); v != 2.71 {
		t.Errorf("getEnvFloat = %f, want %f", v, 2.71)
	}
}
