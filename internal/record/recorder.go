package record

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/eleven-am/emotion-monitor/internal/inference"
)

const (
	defaultQueueSize = 64
	writeTimeout     = 5 * time.Second
)

// Recorder persists observations off the detection goroutine. When the
// queue is full new observations are dropped.
type Recorder struct {
	store   *Store
	moments *Moments
	history *HistoryStore
	logger  *slog.Logger

	queue chan detection.Observation
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewRecorder accepts nil moments or history; those sinks are then skipped.
func NewRecorder(store *Store, moments *Moments, history *HistoryStore, logger *slog.Logger, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Recorder{
		store:   store,
		moments: moments,
		history: history,
		logger:  logger.With("component", "recorder"),
		queue:   make(chan detection.Observation, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *Recorder) Observe(obs detection.Observation) {
	select {
	case <-r.stop:
		return
	default:
	}

	select {
	case r.queue <- obs:
	default:
		r.logger.Warn("record queue full, dropping observation", "session_id", obs.SessionID)
	}
}

// Run writes queued observations until ctx is cancelled or Close is called.
// Observations still queued at that point are flushed first.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case obs := <-r.queue:
			r.write(obs)
		case <-ctx.Done():
			r.drain()
			return
		case <-r.stop:
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case obs := <-r.queue:
			r.write(obs)
		default:
			return
		}
	}
}

// Close stops Run and waits for it to return. Run must have been started.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Recorder) write(obs detection.Observation) {
	records := Records(obs)
	if len(records) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.store.CreateBatch(ctx, records); err != nil {
		r.logger.Error("failed to store detections", "error", err, "session_id", obs.SessionID)
		return
	}

	if r.moments != nil {
		if err := r.moments.Upsert(ctx, records...); err != nil {
			r.logger.Warn("failed to index detections", "error", err)
		}
	}

	if r.history != nil {
		primary := records[0]
		for _, rec := range records[1:] {
			if rec.Confidence > primary.Confidence {
				primary = rec
			}
		}
		entry := detection.HistoryEntry{
			Emotion:    inference.Emotion(primary.Emotion),
			Confidence: primary.Confidence,
			At:         obs.At,
		}
		if err := r.history.Push(ctx, entry); err != nil {
			r.logger.Warn("failed to push history", "error", err)
		}
	}
}

// Records converts an observation into one Detection per face.
func Records(obs detection.Observation) []*Detection {
	if obs.Result == nil || len(obs.Result.Faces) == 0 {
		return nil
	}

	latency := obs.Latency.Milliseconds()
	out := make([]*Detection, 0, len(obs.Result.Faces))
	for i, f := range obs.Result.Faces {
		var scores map[string]float64
		if len(f.AllPredictions) > 0 {
			scores = make(map[string]float64, len(f.AllPredictions))
			for e, p := range f.AllPredictions {
				scores[string(e)] = p
			}
		}
		out = append(out, &Detection{
			SessionID:  obs.SessionID,
			FaceIndex:  i,
			Emotion:    string(f.Emotion),
			Confidence: f.Confidence,
			Scores:     scores,
			X:          f.BoundingBox.X,
			Y:          f.BoundingBox.Y,
			Width:      f.BoundingBox.Width,
			Height:     f.BoundingBox.Height,
			LatencyMs:  latency,
			CreatedAt:  obs.At,
		})
	}
	return out
}
