package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jietuba/longstitch/internal/config"
	"github.com/jietuba/longstitch/internal/frame"
	"github.com/jietuba/longstitch/internal/screen"
	"github.com/jietuba/longstitch/internal/stitch"
	"github.com/jietuba/longstitch/internal/tui"
	"github.com/jietuba/longstitch/pkg/imgutil"
)

var (
	captureOutput     string
	captureHorizontal bool
	captureRate       float64
	captureRegion     []int
	captureNoUI       bool
)

var captureCmd = &cobra.Command{
	Use:   "capture [flags]",
	Short: "Capture the screen while you scroll and stitch the result",
	Long:  "capture polls the screen at a fixed rate while you scroll through the content. Press Ctrl+C (or stop scrolling) to finish and write the composed image.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var region screen.Region
		if len(captureRegion) == 4 {
			region = screen.Region{
				X: captureRegion[0], Y: captureRegion[1],
				Width: captureRegion[2], Height: captureRegion[3],
			}
		} else if len(captureRegion) != 0 {
			return fmt.Errorf("--region wants x,y,width,height")
		}

		rate := captureRate
		if rate <= 0 {
			rate = config.Load().CaptureRate
		}

		sess := stitch.NewSession(sessionConfig(captureHorizontal, 0, 0, -1))
		ctx := context.Background()
		sess.Start(ctx)

		uiDone := make(chan struct{})
		if captureNoUI {
			go func() {
				for range sess.Events() {
				}
				close(uiDone)
			}()
		} else {
			program := tea.NewProgram(tui.NewModel(sess.Events()))
			go func() {
				_, _ = program.Run()
				close(uiDone)
			}()
		}

		capturer := screen.New(region)
		defer capturer.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
		defer ticker.Stop()

		var seq uint64
	loop:
		for {
			select {
			case <-sigCh:
				break loop
			case <-ticker.C:
				img, changed := capturer.Capture()
				if !changed {
					continue
				}
				seq++
				f, err := frame.FromImage(img, seq, time.Now())
				if err != nil {
					continue
				}
				if err := sess.Submit(f); err != nil {
					break loop
				}
			}
		}

		sess.Stop()
		comp, err := sess.Wait(ctx)
		<-uiDone
		if err != nil {
			return err
		}

		if err := imgutil.SavePNG(captureOutput, comp.Image()); err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Frames captured", Value: fmt.Sprintf("%d", seq)},
			{Label: "Composite rows", Value: fmt.Sprintf("%d", comp.Length())},
			{Label: "Output", Value: captureOutput},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "stitched.png", "output image path")
	captureCmd.Flags().BoolVar(&captureHorizontal, "horizontal", false, "content scrolls horizontally")
	captureCmd.Flags().Float64Var(&captureRate, "rate", 0, "captures per second")
	captureCmd.Flags().IntSliceVar(&captureRegion, "region", nil, "capture rectangle as x,y,width,height")
	captureCmd.Flags().BoolVar(&captureNoUI, "no-ui", false, "disable the progress display")

	rootCmd.AddCommand(captureCmd)
}
