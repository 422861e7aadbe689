package detection

import (
	"fmt"
	"math"
	"strings"

	"github.com/eleven-am/emotion-monitor/internal/frame"
	"github.com/eleven-am/emotion-monitor/internal/inference"
)

// Geometry holds the three coordinate spaces a box passes through: the
// image sent to the service, the captured frame, and the rendered video.
type Geometry struct {
	Display frame.Size
	Capture frame.Size
	Sent    frame.Size
}

// Scale returns the factors mapping sent-image coordinates to display
// coordinates. Unknown sizes contribute a factor of one.
func (g Geometry) Scale() (sx, sy float64) {
	capture := g.Capture
	if capture.Empty() {
		capture = g.Sent
	}
	display := g.Display
	if display.Empty() {
		display = capture
	}
	return ratio(capture.Width, g.Sent.Width) * ratio(display.Width, capture.Width),
		ratio(capture.Height, g.Sent.Height) * ratio(display.Height, capture.Height)
}

func ratio(num, den int) float64 {
	if num <= 0 || den <= 0 {
		return 1
	}
	return float64(num) / float64(den)
}

type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type OverlaySpec struct {
	Index      int               `json:"index"`
	FaceID     int               `json:"face_id"`
	Emotion    inference.Emotion `json:"emotion"`
	Confidence float64           `json:"confidence"`
	Label      string            `json:"label"`
	Box        Box               `json:"box"`
}

// Render maps every face in result into display coordinates. It is pure:
// the same inputs always produce the same overlays.
func Render(result *inference.DetectionResult, state LoopState) []OverlaySpec {
	if result == nil || len(result.Faces) == 0 {
		return nil
	}

	sx, sy := state.Geometry.Scale()
	overlays := make([]OverlaySpec, len(result.Faces))
	for i, f := range result.Faces {
		b := f.BoundingBox
		overlays[i] = OverlaySpec{
			Index:      i,
			FaceID:     f.FaceID,
			Emotion:    f.Emotion,
			Confidence: f.Confidence,
			Label:      Label(f.Emotion, f.Confidence),
			Box: Box{
				X:      float64(b.X) * sx,
				Y:      float64(b.Y) * sy,
				Width:  float64(b.Width) * sx,
				Height: float64(b.Height) * sy,
			},
		}
	}
	return overlays
}

func Percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

func Label(e inference.Emotion, confidence float64) string {
	name := string(e)
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s %d%%", strings.ToUpper(name[:1])+name[1:], Percent(confidence))
}

// OverlayDiff describes how to move the surface from one overlay list to
// the next, reusing overlays by position.
type OverlayDiff struct {
	Updated []OverlaySpec `json:"updated,omitempty"`
	Created []OverlaySpec `json:"created,omitempty"`
	Removed []int         `json:"removed,omitempty"`
}

func (d OverlayDiff) Empty() bool {
	return len(d.Updated) == 0 && len(d.Created) == 0 && len(d.Removed) == 0
}

func Reconcile(prev, next []OverlaySpec) OverlayDiff {
	var diff OverlayDiff
	for i, o := range next {
		if i < len(prev) {
			diff.Updated = append(diff.Updated, o)
		} else {
			diff.Created = append(diff.Created, o)
		}
	}
	for i := len(next); i < len(prev); i++ {
		diff.Removed = append(diff.Removed, i)
	}
	return diff
}
