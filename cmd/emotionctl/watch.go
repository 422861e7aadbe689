package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/spf13/cobra"
)

var (
	watchDevice   string
	watchInterval int
	watchWidth    int
	watchHeight   int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run live emotion detection against a local camera",
	Long: `Open a camera and run the adaptive detection loop until interrupted.

Status changes, the dominant emotion of every detection and the recent
history are printed to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		driver, err := newDriver(cmd)
		if err != nil {
			return err
		}
		cameras := camera.NewManager(driver, logger)
		if _, err := cameras.Acquire(ctx, camera.Constraints{
			DeviceID: watchDevice,
			Width:    watchWidth,
			Height:   watchHeight,
		}); err != nil {
			return err
		}
		defer cameras.Release()

		cfg := detection.DefaultConfig()
		cfg.Interval = time.Duration(watchInterval) * time.Millisecond
		cfg.RequestTimeout = 2 * cfg.Interval
		if err := cfg.Validate(); err != nil {
			return err
		}

		loop := detection.New(cfg, newClient(), cameras, newTerminal(os.Stdout), logger)
		defer loop.Dispose()

		if err := loop.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		loop.Stop()
		loop.Wait()

		st := loop.State().Stats
		fmt.Printf("\nsubmitted %d, completed %d, failed %d, discarded %d\n", st.Submitted, st.Completed, st.Failed, st.Discarded)
		return nil
	},
}

func init() {
	addCameraFlags(watchCmd)
	watchCmd.Flags().StringVar(&watchDevice, "device", "", "camera device id (default: first found)")
	watchCmd.Flags().IntVar(&watchInterval, "interval", 300, "tick interval in milliseconds")
	watchCmd.Flags().IntVar(&watchWidth, "width", 640, "requested capture width")
	watchCmd.Flags().IntVar(&watchHeight, "height", 480, "requested capture height")
	rootCmd.AddCommand(watchCmd)
}

// terminal prints loop output as plain lines. Repeated statuses are
// collapsed so a steady "searching" does not flood the screen.
type terminal struct {
	mu         sync.Mutex
	out        io.Writer
	lastStatus string
}

var _ detection.Surface = (*terminal)(nil)

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) ShowStatus(level detection.StatusLevel, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", level, message)
	if line == t.lastStatus {
		return
	}
	t.lastStatus = line
	fmt.Fprintf(t.out, "%s %s\n", time.Now().Format("15:04:05"), line)
}

func (t *terminal) ShowResult(view detection.ResultView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "%s %-9s %3d%%  faces=%d latency=%dms skip=%d\n",
		time.Now().Format("15:04:05"), view.Emotion, view.Percent, view.Faces, view.LatencyMs, view.MaxSkipFrames)
}

func (t *terminal) DrawOverlays(diff detection.OverlayDiff, overlays []detection.OverlaySpec) {
	if !verbose {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, o := range overlays {
		fmt.Fprintf(t.out, "  #%d %s at %.0f,%.0f %.0fx%.0f\n", o.Index, o.Label, o.Box.X, o.Box.Y, o.Box.Width, o.Box.Height)
	}
}

func (t *terminal) ClearOverlays(bool) {}

func (t *terminal) ShowHistory(entries []detection.HistoryEntry) {
	if !verbose || len(entries) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprint(t.out, "  history:")
	for _, e := range entries {
		fmt.Fprintf(t.out, " %s(%d%%)", e.Emotion, detection.Percent(e.Confidence))
	}
	fmt.Fprintln(t.out)
}
