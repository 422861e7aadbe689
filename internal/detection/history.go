package detection

import (
	"sync"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/inference"
)

const DefaultHistoryLimit = 10

type HistoryEntry struct {
	Emotion    inference.Emotion `json:"emotion"`
	Confidence float64           `json:"confidence"`
	At         time.Time         `json:"at"`
}

// History is a bounded list of recent detections, newest first.
type History struct {
	mu      sync.RWMutex
	limit   int
	entries []HistoryEntry
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, entries: make([]HistoryEntry, 0, limit)}
}

func (h *History) Push(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) < h.limit {
		h.entries = append(h.entries, HistoryEntry{})
	}
	copy(h.entries[1:], h.entries[:len(h.entries)-1])
	h.entries[0] = e
}

// Entries returns a copy, newest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Reset() {
	h.mu.Lock()
	h.entries = h.entries[:0]
	h.mu.Unlock()
}
