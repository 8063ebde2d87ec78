package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jietuba/longstitch/internal/frame"
	"github.com/jietuba/longstitch/internal/stitch"
	"github.com/jietuba/longstitch/internal/tui"
	"github.com/jietuba/longstitch/pkg/imgutil"
)

var (
	filesOutput     string
	filesHorizontal bool
	filesBandHeight int
	filesMaxOffset  int
	filesMargin     int
	filesNoUI       bool
)

var filesCmd = &cobra.Command{
	Use:   "files [flags] <image>...",
	Short: "Stitch saved capture frames into one image",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := append([]string(nil), args...)
		sort.Strings(paths)

		sess := stitch.NewSession(sessionConfig(filesHorizontal, filesBandHeight, filesMaxOffset, filesMargin))
		ctx := context.Background()
		sess.Start(ctx)

		uiDone := make(chan struct{})
		if filesNoUI {
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

		var submitErr error
		for i, path := range paths {
			img, err := imgutil.DecodeFile(path)
			if err != nil {
				submitErr = fmt.Errorf("%s: %w", path, err)
				break
			}
			f, err := frame.FromImage(img, uint64(i+1), time.Now())
			if err != nil {
				submitErr = fmt.Errorf("%s: %w", path, err)
				break
			}
			if err := sess.Submit(f); err != nil {
				submitErr = fmt.Errorf("%s: %w", path, err)
				break
			}
		}

		sess.Stop()
		comp, waitErr := sess.Wait(ctx)
		<-uiDone

		if submitErr != nil {
			return submitErr
		}
		if waitErr != nil {
			return waitErr
		}

		if err := imgutil.SavePNG(filesOutput, comp.Image()); err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Frames read", Value: fmt.Sprintf("%d", len(paths))},
			{Label: "Composite rows", Value: fmt.Sprintf("%d", comp.Length())},
			{Label: "Output", Value: filesOutput},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
		return nil
	},
}

func init() {
	filesCmd.Flags().StringVarP(&filesOutput, "output", "o", "stitched.png", "output image path")
	filesCmd.Flags().BoolVar(&filesHorizontal, "horizontal", false, "frames scroll horizontally")
	filesCmd.Flags().IntVar(&filesBandHeight, "band-height", 0, "signature band height in rows")
	filesCmd.Flags().IntVar(&filesMaxOffset, "max-offset", 0, "largest scroll advance to search for")
	filesCmd.Flags().IntVar(&filesMargin, "margin", -1, "right-edge pixels to ignore (scrollbar)")
	filesCmd.Flags().BoolVar(&filesNoUI, "no-ui", false, "disable the progress display")

	rootCmd.AddCommand(filesCmd)
}
