package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FFmpegDriver reads v4l2 devices (or network streams) through an ffmpeg
// image2pipe process emitting MJPEG on stdout.
type FFmpegDriver struct {
	pattern string
	binary  string
	logger  *slog.Logger
}

func NewFFmpegDriver(cfg DriverConfig, logger *slog.Logger) *FFmpegDriver {
	pattern := cfg.DevicePattern
	if pattern == "" {
		pattern = "/dev/video*"
	}
	binary := cfg.FFmpegPath
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegDriver{
		pattern: pattern,
		binary:  binary,
		logger:  logger.With("driver", "ffmpeg"),
	}
}

func (d *FFmpegDriver) Name() string {
	return "ffmpeg"
}

func (d *FFmpegDriver) Enumerate(_ context.Context) ([]Device, error) {
	paths, err := filepath.Glob(d.pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		devices = append(devices, Device{ID: p, Label: deviceLabel(p)})
	}
	return devices, nil
}

func deviceLabel(path string) string {
	name := filepath.Base(path)
	if data, err := os.ReadFile(filepath.Join("/sys/class/video4linux", name, "name")); err == nil {
		if label := strings.TrimSpace(string(data)); label != "" {
			return label
		}
	}
	return name
}

func isNetworkSource(device string) bool {
	return strings.HasPrefix(device, "http://") ||
		strings.HasPrefix(device, "https://") ||
		strings.HasPrefix(device, "rtsp://")
}

// checkDevice maps filesystem errors onto the camera error kinds.
func checkDevice(path string) error {
	if isNetworkSource(path) {
		return nil
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: %s", ErrCameraNotFound, path)
		case errors.Is(err, fs.ErrPermission):
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		default:
			return fmt.Errorf("open %s: %w", path, err)
		}
	}
	return f.Close()
}

func (d *FFmpegDriver) args(c Constraints) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if !isNetworkSource(c.DeviceID) {
		args = append(args, "-f", "v4l2")
		if c.Width > 0 && c.Height > 0 {
			args = append(args, "-video_size", fmt.Sprintf("%dx%d", c.Width, c.Height))
		}
		if c.FPS > 0 {
			args = append(args, "-framerate", strconv.Itoa(c.FPS))
		}
	}
	return append(args, "-i", c.DeviceID, "-f", "image2pipe", "-vcodec", "mjpeg", "-q:v", "5", "-")
}

func (d *FFmpegDriver) Open(_ context.Context, c Constraints) (Source, error) {
	if err := checkDevice(c.DeviceID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, d.binary, d.args(c)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	logger := d.logger.With("device", c.DeviceID)
	closeFn := func() error {
		cancel()
		_ = cmd.Wait()
		return nil
	}
	return newStreamSource(stdout, closeFn, logger), nil
}
