//go:build gocv

package camera

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/eleven-am/emotion-monitor/internal/frame"
	"gocv.io/x/gocv"
)

func init() {
	registerDriver("gocv", func(cfg DriverConfig, logger *slog.Logger) Driver {
		return NewGoCVDriver(cfg, logger)
	})
}

// GoCVDriver captures through OpenCV's VideoCapture. Device IDs are either
// numeric indices or device paths.
type GoCVDriver struct {
	ffmpeg *FFmpegDriver
	logger *slog.Logger
}

func NewGoCVDriver(cfg DriverConfig, logger *slog.Logger) *GoCVDriver {
	return &GoCVDriver{
		ffmpeg: NewFFmpegDriver(cfg, logger),
		logger: logger.With("driver", "gocv"),
	}
}

func (d *GoCVDriver) Name() string {
	return "gocv"
}

func (d *GoCVDriver) Enumerate(ctx context.Context) ([]Device, error) {
	return d.ffmpeg.Enumerate(ctx)
}

func (d *GoCVDriver) Open(_ context.Context, c Constraints) (Source, error) {
	var device any = c.DeviceID
	if idx, err := strconv.Atoi(c.DeviceID); err == nil {
		device = idx
	} else if err := checkDevice(c.DeviceID); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraNotFound, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrCameraNotFound, c.DeviceID)
	}
	if c.Width > 0 && c.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}
	if c.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(c.FPS))
	}

	s := &gocvSource{
		vc:     vc,
		logger: d.logger.With("device", c.DeviceID),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type gocvSource struct {
	vc     *gocv.VideoCapture
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}

	mu     sync.RWMutex
	latest image.Image
	err    error
	closed bool
}

func (s *gocvSource) readLoop() {
	defer close(s.done)

	mat := gocv.NewMat()
	defer mat.Close()

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if ok := s.vc.Read(&mat); !ok || mat.Empty() {
			s.logger.Warn("camera read failed")
			s.mu.Lock()
			s.err = io.EOF
			s.mu.Unlock()
			return
		}
		img, err := mat.ToImage()
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.latest = img
		s.mu.Unlock()
	}
}

func (s *gocvSource) Frame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.latest == nil {
		return nil, ErrNoFrame
	}
	return s.latest, nil
}

func (s *gocvSource) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.err == nil && s.latest != nil
}

func (s *gocvSource) Size() frame.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return frame.Size{}
	}
	return frame.SizeOf(s.latest)
}

func (s *gocvSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return s.vc.Close()
}
