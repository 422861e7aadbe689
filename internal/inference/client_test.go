package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:5000/"})
	if client == nil {
		t.Fatal("NewClient should not return nil")
	}
	if client.baseURL != "http://localhost:5000" {
		t.Errorf("expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", client.httpClient.Timeout)
	}
	if client.pingTTL != 30*time.Second {
		t.Errorf("expected default ping ttl 30s, got %v", client.pingTTL)
	}
}

func TestNewClient_CustomTimeout(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:5000", Timeout: 600 * time.Millisecond})
	if client.httpClient.Timeout != 600*time.Millisecond {
		t.Errorf("expected timeout 600ms, got %v", client.httpClient.Timeout)
	}
}

func TestClient_Submit_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/predict" {
			t.Errorf("expected /predict, got %s", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json")
		}

		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !strings.HasPrefix(req.Image, "data:image/jpeg;base64,") {
			t.Errorf("expected data url, got %q", req.Image)
		}
		data, err := DecodeDataURL(req.Image)
		if err != nil {
			t.Fatalf("failed to decode image: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("expected payload round trip, got %q", data)
		}

		w.Write([]byte(`{
			"success": true,
			"faces_detected": 1,
			"emotions": [{
				"face_id": 1,
				"bounding_box": {"x": 100, "y": 50, "width": 80, "height": 90},
				"emotion": "happy",
				"confidence": 0.92,
				"prediction_time_ms": 12.5,
				"all_predictions": {"happy": 0.92, "sad": 0.03, "neutral": 0.05}
			}],
			"message": "Successfully detected 1 face(s)",
			"processing_time_ms": 40.1,
			"timing_breakdown": {"decode_ms": 1, "convert_ms": 1, "predict_ms": 38, "total_ms": 41.2}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result, err := client.Submit(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.HasFaces() {
		t.Fatal("expected faces")
	}
	if result.FacesDetected != 1 {
		t.Errorf("expected 1 face detected, got %d", result.FacesDetected)
	}
	face := result.Faces[0]
	if face.Emotion != EmotionHappy {
		t.Errorf("expected happy, got %s", face.Emotion)
	}
	if face.BoundingBox != (BoundingBox{X: 100, Y: 50, Width: 80, Height: 90}) {
		t.Errorf("unexpected bounding box %+v", face.BoundingBox)
	}
	if face.AllPredictions[EmotionNeutral] != 0.05 {
		t.Errorf("expected neutral 0.05, got %v", face.AllPredictions[EmotionNeutral])
	}
	if result.ServerDuration() != 41200*time.Microsecond {
		t.Errorf("expected server duration 41.2ms, got %v", result.ServerDuration())
	}
}

func TestClient_Submit_NoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "No face detected", "faces_detected": 0, "emotions": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result, err := client.Submit(context.Background(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("zero faces should not be an error: %v", err)
	}
	if result.HasFaces() {
		t.Error("expected no faces")
	}
	if result.Message != "No face detected" {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestClient_Submit_EmptyPayload(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:5000"})
	_, err := client.Submit(context.Background(), nil)
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}

func TestClient_Submit_ErrorStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"json error body", http.StatusBadRequest, `{"error": "No image data provided"}`, "No image data provided"},
		{"predictor down", http.StatusInternalServerError, `{"error": "Predictor not initialized"}`, "Predictor not initialized"},
		{"plain body", http.StatusBadGateway, "upstream gone", "upstream gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{BaseURL: server.URL})
			_, err := client.Submit(context.Background(), []byte("jpeg"))

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if statusErr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, statusErr.Code)
			}
			if statusErr.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, statusErr.Message)
			}
		})
	}
}

func TestClient_Submit_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.Submit(context.Background(), []byte("jpeg")); err == nil {
		t.Error("expected decode error")
	}
}

func TestClient_Submit_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Submit(ctx, []byte("jpeg")); err == nil {
		t.Error("expected timeout error")
	}
}

func TestClient_SubmitFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict_file" {
			t.Errorf("expected /predict_file, got %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected multipart file: %v", err)
		}
		defer file.Close()
		if header.Filename != "face.jpg" {
			t.Errorf("expected filename face.jpg, got %s", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "image-data" {
			t.Errorf("unexpected file content %q", data)
		}
		w.Write([]byte(`{"success": true, "faces_detected": 1, "emotions": [{"face_id": 1, "emotion": "sad", "confidence": 0.8, "bounding_box": {"x": 1, "y": 2, "width": 3, "height": 4}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result, err := client.SubmitFile(context.Background(), "face.jpg", []byte("image-data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Faces) != 1 || result.Faces[0].Emotion != EmotionSad {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestClient_Health(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"healthy", `{"status": "healthy", "predictor_status": "initialized", "timestamp": 1700000000.5}`, nil},
		{"unhealthy", `{"status": "unhealthy", "predictor_status": "failed", "timestamp": 1700000000.5}`, ErrUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("expected /health, got %s", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{BaseURL: server.URL})
			h, err := client.Health(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !h.Healthy() {
					t.Error("expected healthy response")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_Ping_Cached(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status": "healthy", "predictor_status": "initialized"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, PingTTL: time.Minute})
	if !client.Ping(context.Background()) {
		t.Fatal("expected reachable")
	}
	if !client.Ping(context.Background()) {
		t.Fatal("expected cached reachable")
	}
	if calls != 1 {
		t.Errorf("expected 1 health call, got %d", calls)
	}
}

func TestClient_Ping_Unreachable(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if client.Ping(context.Background()) {
		t.Error("expected unreachable")
	}
}

func TestClient_SubmitFailureMarksUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy", "predictor_status": "initialized"}`))
	}))

	client := NewClient(Config{BaseURL: server.URL, PingTTL: time.Minute})
	if !client.Ping(context.Background()) {
		t.Fatal("expected reachable")
	}

	server.Close()
	if _, err := client.Submit(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0xD9}); err == nil {
		t.Fatal("expected submit to fail against a closed server")
	}
	if client.Ping(context.Background()) {
		t.Error("expected a failed submit to mark the service unreachable")
	}
}

func TestClient_Info(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "Facial Emotion Recognition API", "version": "1.0.0", "status": "active", "endpoints": {"predict": "POST /predict"}, "supported_emotions": ["happy", "sad", "neutral"]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	info, err := client.Info(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", info.Version)
	}
	if len(info.SupportedEmotions) != 3 {
		t.Errorf("expected 3 emotions, got %d", len(info.SupportedEmotions))
	}
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"data url", DataURL([]byte("abc")), "abc", false},
		{"bare base64", "YWJj", "abc", false},
		{"missing comma", "data:image/jpeg;base64", "", true},
		{"invalid base64", "data:image/jpeg;base64,!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDataURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
