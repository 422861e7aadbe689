package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/eleven-am/emotion-monitor/internal/frame"
)

// StillDriver serves a single image file as a camera. Useful for demos
// and for running the pipeline on machines without a capture device.
type StillDriver struct {
	path string
}

func NewStillDriver(path string) *StillDriver {
	return &StillDriver{path: path}
}

func (d *StillDriver) Name() string {
	return "still"
}

func (d *StillDriver) Enumerate(_ context.Context) ([]Device, error) {
	if d.path == "" {
		return nil, nil
	}
	if _, err := os.Stat(d.path); err != nil {
		return nil, nil
	}
	return []Device{{ID: d.path, Label: filepath.Base(d.path)}}, nil
}

func (d *StillDriver) Open(_ context.Context, c Constraints) (Source, error) {
	path := c.DeviceID
	if path == "" {
		path = d.path
	}
	if err := checkDevice(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open still image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode still image: %w", err)
	}
	return NewImageSource(img), nil
}

// ImageSource always yields the same image.
type ImageSource struct {
	mu     sync.RWMutex
	img    image.Image
	closed bool
}

func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

func (s *ImageSource) Frame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.img == nil {
		return nil, ErrNoFrame
	}
	return s.img, nil
}

func (s *ImageSource) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.img != nil
}

func (s *ImageSource) Size() frame.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.img == nil {
		return frame.Size{}
	}
	return frame.SizeOf(s.img)
}

// SetImage replaces the served image.
func (s *ImageSource) SetImage(img image.Image) {
	s.mu.Lock()
	s.img = img
	s.mu.Unlock()
}

func (s *ImageSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
