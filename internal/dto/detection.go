package dto

import "time"

type StartDetectionRequest struct {
	DeviceID string `json:"device_id,omitempty" example:"/dev/video0"`
}

type DisplaySizeRequest struct {
	Width  int `json:"width" example:"640"`
	Height int `json:"height" example:"480"`
}

type SelectCameraRequest struct {
	DeviceID string `json:"device_id" example:"/dev/video1"`
}

type BoxResponse struct {
	X      float64 `json:"x" example:"200"`
	Y      float64 `json:"y" example:"100"`
	Width  float64 `json:"width" example:"160"`
	Height float64 `json:"height" example:"180"`
}

type OverlayResponse struct {
	Index      int         `json:"index" example:"0"`
	Emotion    string      `json:"emotion" example:"happy"`
	Confidence float64     `json:"confidence" example:"0.92"`
	Label      string      `json:"label" example:"Happy 92%"`
	Box        BoxResponse `json:"box"`
}

type SizeResponse struct {
	Width  int `json:"width" example:"320"`
	Height int `json:"height" example:"240"`
}

type GeometryResponse struct {
	Display SizeResponse `json:"display"`
	Capture SizeResponse `json:"capture"`
	Sent    SizeResponse `json:"sent"`
}

type StatsResponse struct {
	Submitted int64 `json:"submitted" example:"120"`
	Completed int64 `json:"completed" example:"117"`
	Failed    int64 `json:"failed" example:"2"`
	Discarded int64 `json:"discarded" example:"1"`
}

type DetectionStateResponse struct {
	SessionID      string            `json:"session_id,omitempty" example:"ses_3f2a9c"`
	Active         bool              `json:"active" example:"true"`
	Pending        bool              `json:"pending" example:"false"`
	SkipFrameCount int               `json:"skip_frame_count" example:"1"`
	MaxSkipFrames  int               `json:"max_skip_frames" example:"2"`
	LastSuccess    *time.Time        `json:"last_success,omitempty"`
	LastLatencyMs  int64             `json:"last_latency_ms" example:"84"`
	Faces          []OverlayResponse `json:"faces"`
	Geometry       GeometryResponse  `json:"geometry"`
	Stats          StatsResponse     `json:"stats"`
	Camera         *CameraResponse   `json:"camera,omitempty"`
}

type CameraResponse struct {
	ID    string `json:"id" example:"/dev/video0"`
	Label string `json:"label,omitempty" example:"Integrated Camera"`
}

type CameraListResponse struct {
	Driver  string           `json:"driver" example:"ffmpeg"`
	Current string           `json:"current,omitempty" example:"/dev/video0"`
	Devices []CameraResponse `json:"devices"`
}

type HistoryEntryResponse struct {
	Emotion    string    `json:"emotion" example:"happy"`
	Confidence float64   `json:"confidence" example:"0.92"`
	Percent    int       `json:"percent" example:"92"`
	At         time.Time `json:"at"`
}

type HistoryResponse struct {
	Source  string                 `json:"source" example:"redis" enums:"redis,memory"`
	Entries []HistoryEntryResponse `json:"entries"`
}

type DetectionRecordResponse struct {
	ID         string             `json:"id" example:"5b7c1d0e-8f5a-4d55-9a57-3e0f5f8f9c11"`
	SessionID  string             `json:"session_id" example:"ses_3f2a9c"`
	FaceIndex  int                `json:"face_index" example:"0"`
	Emotion    string             `json:"emotion" example:"happy"`
	Confidence float64            `json:"confidence" example:"0.92"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	X          int                `json:"x" example:"100"`
	Y          int                `json:"y" example:"50"`
	Width      int                `json:"width" example:"80"`
	Height     int                `json:"height" example:"90"`
	LatencyMs  int64              `json:"latency_ms" example:"84"`
	CreatedAt  time.Time          `json:"created_at"`
}

type DetectionListResponse struct {
	SessionID  string                    `json:"session_id,omitempty" example:"ses_3f2a9c"`
	Detections []DetectionRecordResponse `json:"detections"`
}

type EmotionSummaryResponse struct {
	Emotion       string  `json:"emotion" example:"happy"`
	Count         int64   `json:"count" example:"42"`
	AvgConfidence float64 `json:"avg_confidence" example:"0.81"`
}

type DetectionSummaryResponse struct {
	SessionID string                   `json:"session_id,omitempty" example:"ses_3f2a9c"`
	Total     int64                    `json:"total" example:"57"`
	Emotions  []EmotionSummaryResponse `json:"emotions"`
}
