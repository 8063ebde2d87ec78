// Stitching daemon - accepts scroll capture frames over WebSocket and
// serves the composed result over HTTP
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jietuba/longstitch/internal/config"
	"github.com/jietuba/longstitch/internal/server"
	"github.com/jietuba/longstitch/internal/stitch"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg := config.Load()

	mgr := stitch.NewManager(stitch.Config{
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
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(ctx, cfg, mgr, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("stitch daemon starting", "http", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	if err := mgr.Cancel(); err == nil {
		slog.Info("active session canceled")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	srv.Close()
	slog.Info("shutdown complete")
}
