package record

import (
	"time"

	"github.com/eleven-am/emotion-monitor/internal/shared"
)

// Detection is one face from one successful inference round trip.
// Box coordinates are as reported by the inference server, in sent-frame pixels.
type Detection struct {
	ID        string `gorm:"primaryKey" json:"id"`
	SessionID string `gorm:"not null;index" json:"session_id"`
	FaceIndex int    `gorm:"not null" json:"face_index"`

	Emotion    string        `gorm:"not null;index" json:"emotion"`
	Confidence float64       `gorm:"not null" json:"confidence"`
	Scores     shared.Scores `gorm:"type:json" json:"scores,omitempty"`

	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

type EmotionSummary struct {
	Emotion       string  `json:"emotion"`
	Count         int64   `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}
