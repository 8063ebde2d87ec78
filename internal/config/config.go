// Package config handles engine and service configuration
package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr           string
	BandHeight         int
	MaxSearchOffset    int
	MinMovement        int
	IdleThreshold      int
	MaxCompositeLength int
	PixelTolerance     int
	SignatureThreshold float64
	PixelThreshold     float64
	ConfirmRows        int
	MaxHashDistance    int
	ScrollbarMargin    int
	QueueSize          int
	CaptureRate        float64 // Hz
}

func Load() *Config {
	return &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8600"),
		BandHeight:         getEnvInt("BAND_HEIGHT", 4),
		MaxSearchOffset:    getEnvInt("MAX_SEARCH_OFFSET", 600),
		MinMovement:        getEnvInt("MIN_MOVEMENT", 4),
		IdleThreshold:      getEnvInt("IDLE_THRESHOLD", 5),
		MaxCompositeLength: getEnvInt("MAX_COMPOSITE_LENGTH", 30000),
		PixelTolerance:     getEnvInt("PIXEL_TOLERANCE", 8),
		SignatureThreshold: getEnvFloat("SIGNATURE_THRESHOLD", 0.85),
		PixelThreshold:     getEnvFloat("PIXEL_THRESHOLD", 0.90),
		ConfirmRows:        getEnvInt("CONFIRM_ROWS", 48),
		MaxHashDistance:    getEnvInt("MAX_HASH_DISTANCE", 5),
		ScrollbarMargin:    getEnvInt("SCROLLBAR_MARGIN", 20),
		QueueSize:          getEnvInt("FRAME_QUEUE_SIZE", 16),
		CaptureRate:        getEnvFloat("CAPTURE_RATE", 5.0),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
