package overlay

import (
	"time"

	"github.com/eleven-am/emotion-monitor/internal/detection"
)

type MessageType string

const (
	MessageTypeStatus   MessageType = "status"
	MessageTypeResult   MessageType = "result"
	MessageTypeOverlays MessageType = "overlays"
	MessageTypeClear    MessageType = "clear"
	MessageTypeHistory  MessageType = "history"

	// sent by browsers
	MessageTypeDisplay MessageType = "display"
)

type Message struct {
	Type MessageType `json:"type"`
	At   time.Time   `json:"at"`

	Status   *StatusPayload           `json:"status,omitempty"`
	Result   *detection.ResultView    `json:"result,omitempty"`
	Overlays *OverlaysPayload         `json:"overlays,omitempty"`
	Clear    *ClearPayload            `json:"clear,omitempty"`
	History  []detection.HistoryEntry `json:"history,omitempty"`
	Display  *DisplayPayload          `json:"display,omitempty"`
}

type StatusPayload struct {
	Level   detection.StatusLevel `json:"level"`
	Message string                `json:"message"`
}

// OverlaysPayload carries both the reconcile diff and the full list so a
// client that missed a message can redraw from scratch.
type OverlaysPayload struct {
	Diff  detection.OverlayDiff   `json:"diff"`
	Items []detection.OverlaySpec `json:"items"`
}

type ClearPayload struct {
	Fade bool `json:"fade"`
}

type DisplayPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
