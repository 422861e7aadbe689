package detection

import (
	"time"

	"github.com/eleven-am/emotion-monitor/internal/inference"
)

type StatusLevel string

const (
	StatusIdle      StatusLevel = "idle"
	StatusSearching StatusLevel = "searching"
	StatusDetecting StatusLevel = "detecting"
	StatusWarning   StatusLevel = "warning"
	StatusError     StatusLevel = "error"
)

type ResultView struct {
	Emotion       inference.Emotion `json:"emotion"`
	Confidence    float64           `json:"confidence"`
	Percent       int               `json:"percent"`
	Faces         int               `json:"faces"`
	LatencyMs     int64             `json:"latency_ms"`
	MaxSkipFrames int               `json:"max_skip_frames"`
}

// Surface receives everything the loop wants shown to the user.
// Implementations must not block and must not call back into the Loop.
type Surface interface {
	ShowStatus(level StatusLevel, message string)
	ShowResult(view ResultView)
	DrawOverlays(diff OverlayDiff, overlays []OverlaySpec)
	ClearOverlays(fade bool)
	ShowHistory(entries []HistoryEntry)
}

// Observation is handed to observers after every detection with faces.
type Observation struct {
	SessionID string
	At        time.Time
	Latency   time.Duration
	Geometry  Geometry
	Result    *inference.DetectionResult
	Overlays  []OverlaySpec
}

type Observer interface {
	Observe(obs Observation)
}

type nopSurface struct{}

func (nopSurface) ShowStatus(StatusLevel, string) {}
func (nopSurface) ShowResult(ResultView) {}
func (nopSurface) DrawOverlays(OverlayDiff, []OverlaySpec) {}
func (nopSurface) ClearOverlays(bool) {}
func (nopSurface) ShowHistory([]HistoryEntry) {}
