package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jietuba/longstitch/internal/config"
	"github.com/jietuba/longstitch/internal/stitch"
)

var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "stitch - compose long screenshots from scrolling captures",
	Long:  "stitch aligns overlapping scroll capture frames by their row signatures and composes them into one seamless image.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}

// sessionConfig builds session defaults from the environment, then
// applies command-line overrides.
func sessionConfig(horizontal bool, bandHeight, maxOffset, margin int) stitch.Config {
	cfg := config.Load()
	sc := stitch.Config{
		BandHeight:         cfg.BandHeight,
		MaxSearchOffset:    cfg.MaxSearchOffset,
		MinMovement:        cfg.MinMovement,
		IdleThreshold:      cfg.IdleThreshold,
		MaxCompositeLength: cfg.MaxCompositeLength,
		PixelTolerance:     cfg.PixelTolerance,
		SignatureThreshold: cfg.SignatureThreshold,
		PixelThreshold:     cfg.PixelThreshold,
		ConfirmRows:        cfg.ConfirmRows,
		MaxHashDistance:    cfg.MaxHashDistance,
		ScrollbarMargin:    cfg.ScrollbarMargin,
		QueueSize:          cfg.QueueSize,
	}
	if horizontal {
		sc.Axis = stitch.AxisHorizontal
	}
	if bandHeight > 0 {
		sc.BandHeight = bandHeight
	}
	if maxOffset > 0 {
		sc.MaxSearchOffset = maxOffset
	}
	if margin >= 0 {
		sc.ScrollbarMargin = margin
	}
	return sc
}
