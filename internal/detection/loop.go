// Package detection runs the adaptive capture/submit/render loop.
package detection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/frame"
	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/eleven-am/emotion-monitor/internal/shared"
)

var (
	ErrNoStream             = errors.New("no camera stream available")
	ErrInferenceUnavailable = errors.New("inference service unavailable")
	ErrDisposed             = errors.New("detection loop disposed")
)

// Detector is the inference capability the loop consumes.
type Detector interface {
	Submit(ctx context.Context, jpeg []byte) (*inference.DetectionResult, error)
	Health(ctx context.Context) (*inference.HealthResponse, error)
}

// FrameProvider hands out the current camera source. *camera.Manager
// satisfies it.
type FrameProvider interface {
	Source() (camera.Source, error)
}

type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Discarded int64
}

type LoopState struct {
	SessionID      string
	Active         bool
	Pending        bool
	SkipFrameCount int
	MaxSkipFrames  int
	LastSuccess    time.Time
	LastLatency    time.Duration
	CurrentFaces   []OverlaySpec
	Geometry       Geometry
	Stats          Stats
}

type Option func(*Loop)

func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observers = append(l.observers, o) }
}

// Loop captures a frame every tick, keeps at most one inference request
// in flight and adapts how many ticks it skips to the observed latency.
// A response that arrives after Stop is discarded.
type Loop struct {
	cfg       Config
	detector  Detector
	frames    FrameProvider
	surface   Surface
	observers []Observer
	clock     clock.Clock
	logger    *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	emitMu     sync.Mutex
	state      LoopState
	throttle   *Throttle
	history    *History
	display    frame.Size
	generation uint64
	probed     bool
	disposed   bool
	tickStop   chan struct{}
	watchStop  chan struct{}
	inflight   sync.WaitGroup
}

func New(cfg Config, detector Detector, frames FrameProvider, surface Surface, logger *slog.Logger, opts ...Option) *Loop {
	cfg = cfg.withDefaults()
	if surface == nil {
		surface = nopSurface{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		cfg:        cfg,
		detector:   detector,
		frames:     frames,
		surface:    surface,
		clock:      clock.New(),
		logger:     logger.With("component", "detection"),
		baseCtx:    ctx,
		baseCancel: cancel,
		throttle:   NewThrottle(cfg),
		history:    NewHistory(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state.MaxSkipFrames = l.throttle.MaxSkip()
	return l
}

// Start probes the inference service on first use, then begins ticking.
// Starting an active loop is a no-op.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return ErrDisposed
	}
	if l.state.Active {
		l.mu.Unlock()
		return nil
	}
	probed := l.probed
	l.mu.Unlock()

	if !probed {
		if _, err := l.detector.Health(ctx); err != nil {
			l.logger.Error("inference health probe failed", "error", err)
			l.surface.ShowStatus(StatusError, "Emotion service is unreachable")
			return fmt.Errorf("%w: %w", ErrInferenceUnavailable, err)
		}
	}

	if _, err := l.frames.Source(); err != nil {
		l.surface.ShowStatus(StatusError, "No camera stream available")
		return fmt.Errorf("%w: %w", ErrNoStream, err)
	}

	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return ErrDisposed
	}
	if l.state.Active {
		l.mu.Unlock()
		return nil
	}

	l.probed = true
	l.generation++
	l.throttle.Reset()
	l.state = LoopState{
		SessionID:      shared.NewID("ses_"),
		Active:         true,
		Pending:        l.state.Pending,
		SkipFrameCount: l.throttle.SkipCount(),
		MaxSkipFrames:  l.throttle.MaxSkip(),
		Geometry:       Geometry{Display: l.display},
		Stats:          l.state.Stats,
	}
	stop := make(chan struct{})
	l.tickStop = stop
	ticker := l.clock.Ticker(l.cfg.Interval)
	session := l.state.SessionID
	l.unlockAndEmit(func() {
		l.surface.ShowStatus(StatusSearching, "Looking for faces...")
	})

	l.logger.Info("detection started", "session_id", session, "interval", l.cfg.Interval)
	go l.run(ticker, stop)
	return nil
}

func (l *Loop) run(ticker *clock.Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-l.baseCtx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Stop halts ticking and clears overlays. The camera stays open.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.state.Active {
		l.mu.Unlock()
		return
	}
	l.state.Active = false
	l.generation++
	if l.tickStop != nil {
		close(l.tickStop)
		l.tickStop = nil
	}
	l.stopWatcherLocked()
	l.state.CurrentFaces = nil
	session := l.state.SessionID
	l.unlockAndEmit(func() {
		l.surface.ClearOverlays(false)
		l.surface.ShowStatus(StatusIdle, "Detection stopped")
	})
	l.logger.Info("detection stopped", "session_id", session)
}

// Dispose stops the loop, cancels any in-flight request and waits for it.
func (l *Loop) Dispose() {
	l.Stop()

	l.mu.Lock()
	if l.disposed {
		l.mu.Unlock()
		return
	}
	l.disposed = true
	l.mu.Unlock()

	l.baseCancel()
	l.inflight.Wait()
	l.history.Reset()
}

// Wait blocks until no request is in flight.
func (l *Loop) Wait() {
	l.inflight.Wait()
}

// Tick is one pass of the loop body. It never blocks on the network.
func (l *Loop) Tick() {
	l.mu.Lock()
	if !l.state.Active || l.state.Pending {
		l.mu.Unlock()
		return
	}
	src, err := l.frames.Source()
	if err != nil || !src.Ready() {
		l.mu.Unlock()
		return
	}
	if l.throttle.Skip() {
		l.state.SkipFrameCount = l.throttle.SkipCount()
		l.mu.Unlock()
		return
	}
	l.state.Pending = true
	l.inflight.Add(1)
	gen := l.generation
	l.mu.Unlock()

	prepared, err := l.capture(src)
	if err != nil {
		l.logger.Debug("frame capture failed", "error", err)
		l.mu.Lock()
		l.state.Pending = false
		l.mu.Unlock()
		l.inflight.Done()
		return
	}

	l.mu.Lock()
	l.state.Stats.Submitted++
	l.mu.Unlock()

	go l.submit(gen, prepared)
}

func (l *Loop) capture(src camera.Source) (*frame.Prepared, error) {
	img, err := src.Frame()
	if err != nil {
		return nil, err
	}
	return frame.Prepare(img, l.cfg.MaxSendWidth, l.cfg.MaxSendHeight, l.cfg.JPEGQuality)
}

func (l *Loop) submit(gen uint64, p *frame.Prepared) {
	defer l.inflight.Done()

	ctx, cancel := context.WithTimeout(l.baseCtx, l.cfg.RequestTimeout)
	defer cancel()

	start := l.clock.Now()
	result, err := l.detector.Submit(ctx, p.JPEG)
	l.complete(gen, p, result, err, l.clock.Since(start))
}

func (l *Loop) complete(gen uint64, p *frame.Prepared, result *inference.DetectionResult, err error, latency time.Duration) {
	l.mu.Lock()
	l.state.Pending = false

	if gen != l.generation || !l.state.Active {
		l.state.Stats.Discarded++
		l.mu.Unlock()
		l.logger.Debug("discarding late response", "latency", latency)
		return
	}

	l.state.MaxSkipFrames = l.throttle.Observe(latency)
	l.state.SkipFrameCount = l.throttle.SkipCount()
	l.state.LastLatency = latency
	l.state.Geometry.Capture = p.Captured
	l.state.Geometry.Sent = p.Sent

	if err != nil {
		l.state.Stats.Failed++
		maxSkip := l.state.MaxSkipFrames
		l.unlockAndEmit(func() {
			l.surface.ShowStatus(StatusWarning, "Connection issue, retrying...")
		})
		l.logger.Warn("detection request failed", "error", err, "latency", latency, "max_skip_frames", maxSkip)
		return
	}
	if result.Failed() {
		l.state.Stats.Failed++
		message := result.Message
		l.unlockAndEmit(func() {
			l.surface.ShowStatus(StatusWarning, message)
		})
		l.logger.Warn("detection rejected by server", "message", message, "latency", latency)
		return
	}
	l.state.Stats.Completed++

	if !result.HasFaces() {
		l.unlockAndEmit(func() {
			l.surface.ShowStatus(StatusSearching, "Searching for faces...")
		})
		return
	}

	now := l.clock.Now()
	overlays := Render(result, l.state)
	diff := Reconcile(l.state.CurrentFaces, overlays)
	l.state.CurrentFaces = overlays
	l.state.LastSuccess = now

	primary, _ := result.Primary()
	l.history.Push(HistoryEntry{Emotion: primary.Emotion, Confidence: primary.Confidence, At: now})
	entries := l.history.Entries()

	view := ResultView{
		Emotion:       primary.Emotion,
		Confidence:    primary.Confidence,
		Percent:       Percent(primary.Confidence),
		Faces:         len(result.Faces),
		LatencyMs:     latency.Milliseconds(),
		MaxSkipFrames: l.state.MaxSkipFrames,
	}
	obs := Observation{
		SessionID: l.state.SessionID,
		At:        now,
		Latency:   latency,
		Geometry:  l.state.Geometry,
		Result:    result,
		Overlays:  overlays,
	}
	observers := l.observers
	l.ensureWatcherLocked()

	l.unlockAndEmit(func() {
		l.surface.DrawOverlays(diff, overlays)
		l.surface.ShowResult(view)
		l.surface.ShowHistory(entries)
		l.surface.ShowStatus(StatusDetecting, fmt.Sprintf("%d face(s) detected", len(overlays)))
	})

	for _, o := range observers {
		o.Observe(obs)
	}
}

// unlockAndEmit releases l.mu and runs fn before any later state change
// can publish, so the surface sees updates in state order.
func (l *Loop) unlockAndEmit(fn func()) {
	l.emitMu.Lock()
	l.mu.Unlock()
	defer l.emitMu.Unlock()
	fn()
}

func (l *Loop) ensureWatcherLocked() {
	if l.watchStop != nil {
		return
	}
	stop := make(chan struct{})
	l.watchStop = stop
	ticker := l.clock.Ticker(l.cfg.StaleCheckInterval)
	go l.watch(ticker, stop)
}

func (l *Loop) stopWatcherLocked() {
	if l.watchStop != nil {
		close(l.watchStop)
		l.watchStop = nil
	}
}

func (l *Loop) watch(ticker *clock.Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-l.baseCtx.Done():
			return
		case <-ticker.C:
			if l.CheckStaleness() {
				return
			}
		}
	}
}

// CheckStaleness fades out overlays once the last successful detection is
// older than the staleness window. It reports whether watching can stop.
func (l *Loop) CheckStaleness() bool {
	l.mu.Lock()
	if len(l.state.CurrentFaces) == 0 {
		l.stopWatcherLocked()
		l.mu.Unlock()
		return true
	}
	age := l.clock.Since(l.state.LastSuccess)
	if age <= l.cfg.StaleAfter {
		l.mu.Unlock()
		return false
	}

	l.state.CurrentFaces = nil
	l.stopWatcherLocked()
	l.unlockAndEmit(func() {
		l.surface.ClearOverlays(true)
		l.surface.ShowStatus(StatusSearching, "Searching for faces...")
	})
	l.logger.Debug("overlays stale, cleared", "age", age)
	return true
}

// SetDisplaySize records the size the video is rendered at.
func (l *Loop) SetDisplaySize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", width, height)
	}
	l.mu.Lock()
	l.display = frame.Size{Width: width, Height: height}
	l.state.Geometry.Display = l.display
	l.mu.Unlock()
	return nil
}

// State returns a snapshot.
func (l *Loop) State() LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	s.CurrentFaces = append([]OverlaySpec(nil), l.state.CurrentFaces...)
	return s
}

func (l *Loop) History() []HistoryEntry {
	return l.history.Entries()
}

func (l *Loop) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Active
}
