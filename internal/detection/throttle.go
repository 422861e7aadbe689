package detection

import "time"

// Throttle tracks how many ticks to skip between submissions. The skip
// ceiling grows while the service is slow and shrinks while it is fast;
// latencies between the two thresholds leave it untouched.
type Throttle struct {
	min, max, initial int
	slow, fast        time.Duration

	maxSkip int
	skip    int
}

func NewThrottle(cfg Config) *Throttle {
	cfg = cfg.withDefaults()
	t := &Throttle{
		min:     cfg.MinSkipFrames,
		max:     cfg.MaxSkipFrames,
		initial: cfg.InitialSkipFrames,
		slow:    cfg.SlowLatency,
		fast:    cfg.FastLatency,
	}
	t.Reset()
	return t
}

// Skip consumes one skip credit. It reports true when this tick should
// not submit.
func (t *Throttle) Skip() bool {
	if t.skip > 0 {
		t.skip--
		return true
	}
	return false
}

// Observe adapts the ceiling to a round-trip latency and rearms the skip
// counter. It returns the new ceiling.
func (t *Throttle) Observe(latency time.Duration) int {
	switch {
	case latency > t.slow && t.maxSkip < t.max:
		t.maxSkip++
	case latency < t.fast && t.maxSkip > t.min:
		t.maxSkip--
	}
	t.skip = t.maxSkip
	return t.maxSkip
}

func (t *Throttle) Reset() {
	t.maxSkip = t.initial
	t.skip = 0
}

func (t *Throttle) MaxSkip() int {
	return t.maxSkip
}

func (t *Throttle) SkipCount() int {
	return t.skip
}
