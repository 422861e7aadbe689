package inference

import (
	"errors"
	"time"
)

var (
	ErrNoImage   = errors.New("no image data provided")
	ErrUnhealthy = errors.New("inference service unhealthy")
)

type Emotion string

const (
	EmotionHappy   Emotion = "happy"
	EmotionSad     Emotion = "sad"
	EmotionNeutral Emotion = "neutral"
)

// SupportedEmotions is the label order the model was trained with.
var SupportedEmotions = []Emotion{EmotionHappy, EmotionSad, EmotionNeutral}

func (e Emotion) Valid() bool {
	for _, s := range SupportedEmotions {
		if e == s {
			return true
		}
	}
	return false
}

func (e Emotion) String() string {
	return string(e)
}

type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type FaceResult struct {
	FaceID           int                 `json:"face_id"`
	BoundingBox      BoundingBox         `json:"bounding_box"`
	Emotion          Emotion             `json:"emotion"`
	Confidence       float64             `json:"confidence"`
	PredictionTimeMs float64             `json:"prediction_time_ms"`
	AllPredictions   map[Emotion]float64 `json:"all_predictions,omitempty"`
}

// Scores returns the per-emotion probabilities in SupportedEmotions order.
// Missing labels are zero; the winning label falls back to its confidence.
func (f FaceResult) Scores() []float32 {
	out := make([]float32, len(SupportedEmotions))
	for i, e := range SupportedEmotions {
		if p, ok := f.AllPredictions[e]; ok {
			out[i] = float32(p)
		} else if e == f.Emotion {
			out[i] = float32(f.Confidence)
		}
	}
	return out
}

type ServerTiming struct {
	DecodeMs  float64 `json:"decode_ms"`
	ConvertMs float64 `json:"convert_ms"`
	PredictMs float64 `json:"predict_ms"`
	TotalMs   float64 `json:"total_ms"`
}

type PredictorTiming struct {
	FaceDetection   float64 `json:"face_detection"`
	ModelPrediction float64 `json:"model_prediction"`
	Total           float64 `json:"total"`
}

type DetectionResult struct {
	Success          bool             `json:"success"`
	FacesDetected    int              `json:"faces_detected"`
	Faces            []FaceResult     `json:"emotions"`
	Message          string           `json:"message"`
	ProcessingTimeMs float64          `json:"processing_time_ms,omitempty"`
	ProcessingTime   float64          `json:"processing_time,omitempty"`
	Timing           *ServerTiming    `json:"timing_breakdown,omitempty"`
	PredictorTiming  *PredictorTiming `json:"timing_breakdown_ms,omitempty"`
}

// NoFaceMessage is the message the service sends with an empty frame.
const NoFaceMessage = "No face detected"

// Failed reports a reply in which the service gave up on the frame, as
// opposed to one that simply had no faces in it.
func (r *DetectionResult) Failed() bool {
	return r != nil && !r.Success && r.Message != "" && r.Message != NoFaceMessage
}

// HasFaces reports whether the result carries anything worth drawing.
func (r *DetectionResult) HasFaces() bool {
	return r != nil && r.Success && len(r.Faces) > 0
}

// Primary returns the most confident face.
func (r *DetectionResult) Primary() (FaceResult, bool) {
	if r == nil || len(r.Faces) == 0 {
		return FaceResult{}, false
	}
	best := r.Faces[0]
	for _, f := range r.Faces[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	return best, true
}

// ServerDuration is the processing time reported by the service.
func (r *DetectionResult) ServerDuration() time.Duration {
	ms := r.ProcessingTime
	if r.Timing != nil && r.Timing.TotalMs > 0 {
		ms = r.Timing.TotalMs
	}
	if ms == 0 {
		ms = r.ProcessingTimeMs
	}
	return time.Duration(ms * float64(time.Millisecond))
}

type HealthResponse struct {
	Status          string  `json:"status"`
	PredictorStatus string  `json:"predictor_status"`
	Timestamp       float64 `json:"timestamp"`
}

func (h *HealthResponse) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

type ServiceInfo struct {
	Name              string            `json:"name"`
	Version           string            `json:"version"`
	Status            string            `json:"status"`
	Endpoints         map[string]string `json:"endpoints"`
	SupportedEmotions []Emotion         `json:"supported_emotions"`
}
