package camera

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

type DriverConfig struct {
	DevicePattern string
	FFmpegPath    string
	StillPath     string
}

type driverFactory func(cfg DriverConfig, logger *slog.Logger) Driver

var (
	driversMu sync.RWMutex
	drivers   = map[string]driverFactory{
		"ffmpeg": func(cfg DriverConfig, logger *slog.Logger) Driver { return NewFFmpegDriver(cfg, logger) },
		"still":  func(cfg DriverConfig, _ *slog.Logger) Driver { return NewStillDriver(cfg.StillPath) },
	}
)

func registerDriver(name string, f driverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = f
}

// Drivers lists the names usable with NewDriver in this build.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewDriver(name string, cfg DriverConfig, logger *slog.Logger) (Driver, error) {
	driversMu.RLock()
	f, ok := drivers[name]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return f(cfg, logger), nil
}
