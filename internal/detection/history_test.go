package detection

import (
	"testing"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/inference"
)

func TestHistory_NewestFirst(t *testing.T) {
	h := NewHistory(10)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	h.Push(HistoryEntry{Emotion: inference.EmotionSad, At: base})
	h.Push(HistoryEntry{Emotion: inference.EmotionHappy, At: base.Add(time.Second)})

	entries := h.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Emotion != inference.EmotionHappy {
		t.Errorf("expected newest first, got %s", entries[0].Emotion)
	}
}

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory(10)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 11; i++ {
		h.Push(HistoryEntry{Confidence: float64(i), At: base.Add(time.Duration(i) * time.Second)})
		if h.Len() > 10 {
			t.Fatalf("history grew to %d entries", h.Len())
		}
	}

	entries := h.Entries()
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	if entries[0].Confidence != 10 {
		t.Errorf("expected the 11th insert first, got %v", entries[0].Confidence)
	}
	if entries[9].Confidence != 1 {
		t.Errorf("expected the oldest entry evicted, last is %v", entries[9].Confidence)
	}
}

func TestHistory_EntriesIsCopy(t *testing.T) {
	h := NewHistory(3)
	h.Push(HistoryEntry{Emotion: inference.EmotionNeutral})

	entries := h.Entries()
	entries[0].Emotion = inference.EmotionSad
	if h.Entries()[0].Emotion != inference.EmotionNeutral {
		t.Error("mutating the snapshot changed the history")
	}
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(0)
	h.Push(HistoryEntry{})
	h.Reset()
	if h.Len() != 0 {
		t.Errorf("expected empty history, got %d", h.Len())
	}
}
