package detection

import (
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/frame"
)

type Config struct {
	Interval       time.Duration
	RequestTimeout time.Duration

	SlowLatency       time.Duration
	FastLatency       time.Duration
	InitialSkipFrames int
	MinSkipFrames     int
	MaxSkipFrames     int

	StaleAfter         time.Duration
	StaleCheckInterval time.Duration

	MaxSendWidth  int
	MaxSendHeight int
	JPEGQuality   int

	HistorySize int
}

func DefaultConfig() Config {
	return Config{
		Interval:           300 * time.Millisecond,
		RequestTimeout:     600 * time.Millisecond,
		SlowLatency:        200 * time.Millisecond,
		FastLatency:        100 * time.Millisecond,
		InitialSkipFrames:  2,
		MinSkipFrames:      1,
		MaxSkipFrames:      4,
		StaleAfter:         3 * time.Second,
		StaleCheckInterval: 100 * time.Millisecond,
		MaxSendWidth:       frame.DefaultMaxWidth,
		MaxSendHeight:      frame.DefaultMaxHeight,
		JPEGQuality:        frame.DefaultQuality,
		HistorySize:        10,
	}
}

// withDefaults fills zero fields. A zero RequestTimeout becomes twice the
// tick interval.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 2 * c.Interval
	}
	if c.SlowLatency <= 0 {
		c.SlowLatency = d.SlowLatency
	}
	if c.FastLatency <= 0 {
		c.FastLatency = d.FastLatency
	}
	if c.MinSkipFrames <= 0 {
		c.MinSkipFrames = d.MinSkipFrames
	}
	if c.MaxSkipFrames <= 0 {
		c.MaxSkipFrames = d.MaxSkipFrames
	}
	if c.InitialSkipFrames <= 0 {
		c.InitialSkipFrames = d.InitialSkipFrames
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.StaleCheckInterval <= 0 {
		c.StaleCheckInterval = d.StaleCheckInterval
	}
	if c.MaxSendWidth <= 0 {
		c.MaxSendWidth = d.MaxSendWidth
	}
	if c.MaxSendHeight <= 0 {
		c.MaxSendHeight = d.MaxSendHeight
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = d.JPEGQuality
	}
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	return c
}

func (c Config) Validate() error {
	var errs []error
	if c.MinSkipFrames > c.MaxSkipFrames {
		errs = append(errs, fmt.Errorf("min skip frames %d exceeds max %d", c.MinSkipFrames, c.MaxSkipFrames))
	}
	if c.InitialSkipFrames < c.MinSkipFrames || c.InitialSkipFrames > c.MaxSkipFrames {
		errs = append(errs, fmt.Errorf("initial skip frames %d outside [%d, %d]", c.InitialSkipFrames, c.MinSkipFrames, c.MaxSkipFrames))
	}
	if c.FastLatency >= c.SlowLatency {
		errs = append(errs, fmt.Errorf("fast latency %v must be below slow latency %v", c.FastLatency, c.SlowLatency))
	}
	if c.StaleCheckInterval >= c.StaleAfter {
		errs = append(errs, fmt.Errorf("stale check interval %v must be shorter than stale window %v", c.StaleCheckInterval, c.StaleAfter))
	}
	if c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality %d above 100", c.JPEGQuality))
	}
	return errors.Join(errs...)
}
