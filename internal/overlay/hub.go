package overlay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/detection"
)

// DisplayFunc is invoked when a browser reports the rendered size of its video element.
type DisplayFunc func(width, height int) error

// Hub fans detection surface updates out to every connected browser and
// replays the latest state to clients that join late.
type Hub struct {
	logger *slog.Logger

	mu       sync.Mutex
	clients  map[*Client]struct{}
	status   *Message
	result   *Message
	overlays []detection.OverlaySpec
	history  *Message

	displayMu sync.RWMutex
	onDisplay DisplayFunc

	now func() time.Time
}

var _ detection.Surface = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "overlay_hub"),
		clients: make(map[*Client]struct{}),
		now:     time.Now,
	}
}

func (h *Hub) OnDisplay(fn DisplayFunc) {
	h.displayMu.Lock()
	h.onDisplay = fn
	h.displayMu.Unlock()
}

func (h *Hub) ShowStatus(level detection.StatusLevel, message string) {
	msg := &Message{
		Type:   MessageTypeStatus,
		At:     h.now(),
		Status: &StatusPayload{Level: level, Message: message},
	}
	h.mu.Lock()
	h.status = msg
	h.broadcastLocked(msg)
	h.mu.Unlock()
}

func (h *Hub) ShowResult(view detection.ResultView) {
	msg := &Message{Type: MessageTypeResult, At: h.now(), Result: &view}
	h.mu.Lock()
	h.result = msg
	h.broadcastLocked(msg)
	h.mu.Unlock()
}

func (h *Hub) DrawOverlays(diff detection.OverlayDiff, overlays []detection.OverlaySpec) {
	items := append([]detection.OverlaySpec(nil), overlays...)
	msg := &Message{
		Type:     MessageTypeOverlays,
		At:       h.now(),
		Overlays: &OverlaysPayload{Diff: diff, Items: items},
	}
	h.mu.Lock()
	h.overlays = items
	h.broadcastLocked(msg)
	h.mu.Unlock()
}

func (h *Hub) ClearOverlays(fade bool) {
	msg := &Message{Type: MessageTypeClear, At: h.now(), Clear: &ClearPayload{Fade: fade}}
	h.mu.Lock()
	h.overlays = nil
	h.broadcastLocked(msg)
	h.mu.Unlock()
}

func (h *Hub) ShowHistory(entries []detection.HistoryEntry) {
	msg := &Message{
		Type:    MessageTypeHistory,
		At:      h.now(),
		History: append([]detection.HistoryEntry(nil), entries...),
	}
	h.mu.Lock()
	h.history = msg
	h.broadcastLocked(msg)
	h.mu.Unlock()
}

func (h *Hub) broadcastLocked(msg *Message) {
	for c := range h.clients {
		c.Send(msg)
	}
}

// Snapshot returns the messages a newly connected client needs to render
// the current state.
func (h *Hub) Snapshot() []*Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() []*Message {
	var out []*Message
	if h.status != nil {
		out = append(out, h.status)
	}
	if h.result != nil {
		out = append(out, h.result)
	}
	if len(h.overlays) > 0 {
		out = append(out, &Message{
			Type: MessageTypeOverlays,
			At:   h.now(),
			Overlays: &OverlaysPayload{
				Diff:  detection.Reconcile(nil, h.overlays),
				Items: h.overlays,
			},
		})
	}
	if h.history != nil {
		out = append(out, h.history)
	}
	return out
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, msg := range h.snapshotLocked() {
		c.Send(msg)
	}
	h.clients[c] = struct{}{}
	h.logger.Info("overlay client connected", "clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.logger.Info("overlay client disconnected", "clients", len(h.clients))
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) display(width, height int) {
	h.displayMu.RLock()
	fn := h.onDisplay
	h.displayMu.RUnlock()
	if fn == nil {
		return
	}
	if err := fn(width, height); err != nil {
		h.logger.Warn("rejected display size", "width", width, "height", height, "error", err)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}
