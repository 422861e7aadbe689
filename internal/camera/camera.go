// Package camera owns the capture device. Only the Manager opens, switches
// and releases sources; consumers read frames through Source.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/eleven-am/emotion-monitor/internal/frame"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrCameraNotFound   = errors.New("camera not found")
	ErrNoSource         = errors.New("no camera source acquired")
	ErrNoFrame          = errors.New("no frame available yet")
	ErrUnknownDriver    = errors.New("unknown camera driver")
)

type Constraints struct {
	DeviceID string `json:"device_id,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FPS      int    `json:"fps,omitempty"`
}

type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Source is a live stream of frames.
type Source interface {
	Frame() (image.Image, error)
	Ready() bool
	Size() frame.Size
	Close() error
}

type Driver interface {
	Name() string
	Enumerate(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, c Constraints) (Source, error)
}

type Manager struct {
	driver Driver
	logger *slog.Logger

	mu          sync.RWMutex
	source      Source
	constraints Constraints
}

func NewManager(driver Driver, logger *slog.Logger) *Manager {
	return &Manager{
		driver: driver,
		logger: logger.With("component", "camera", "driver", driver.Name()),
	}
}

func (m *Manager) Enumerate(ctx context.Context) ([]Device, error) {
	devices, err := m.driver.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return devices, nil
}

// Acquire opens a source matching c, replacing any current one.
func (m *Manager) Acquire(ctx context.Context, c Constraints) (Source, error) {
	if c.DeviceID == "" {
		devices, err := m.driver.Enumerate(ctx)
		if err != nil {
			return nil, fmt.Errorf("enumerate devices: %w", err)
		}
		if len(devices) == 0 {
			return nil, ErrCameraNotFound
		}
		c.DeviceID = devices[0].ID
	}

	src, err := m.driver.Open(ctx, c)
	if err != nil {
		m.logger.Warn("failed to open camera", "device", c.DeviceID, "error", err)
		return nil, err
	}

	m.mu.Lock()
	old := m.source
	m.source = src
	m.constraints = c
	m.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			m.logger.Warn("failed to close previous source", "error", err)
		}
	}

	m.logger.Info("camera acquired", "device", c.DeviceID, "width", c.Width, "height", c.Height)
	return src, nil
}

// Switch reopens with a different device, keeping the other constraints.
func (m *Manager) Switch(ctx context.Context, deviceID string) (Source, error) {
	m.mu.RLock()
	c := m.constraints
	m.mu.RUnlock()

	c.DeviceID = deviceID
	return m.Acquire(ctx, c)
}

func (m *Manager) Release() error {
	m.mu.Lock()
	src := m.source
	m.source = nil
	m.mu.Unlock()

	if src == nil {
		return nil
	}
	m.logger.Info("camera released")
	return src.Close()
}

func (m *Manager) Source() (Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.source == nil {
		return nil, ErrNoSource
	}
	return m.source, nil
}

// Current returns the active constraints and whether a source is held.
func (m *Manager) Current() (Constraints, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.constraints, m.source != nil
}

func (m *Manager) DriverName() string {
	return m.driver.Name()
}
