package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/eleven-am/emotion-monitor/internal/dto"
	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/eleven-am/emotion-monitor/internal/record"
	"github.com/eleven-am/emotion-monitor/internal/shared"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeLoop struct {
	mu         sync.Mutex
	startErr   error
	displayErr error
	started    int
	stopped    int
	state      detection.LoopState
	history    []detection.HistoryEntry
	display    [2]int
}

func (f *fakeLoop) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	f.state.Active = true
	f.state.SessionID = "ses_test"
	return nil
}

func (f *fakeLoop) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	f.state.Active = false
}

func (f *fakeLoop) State() detection.LoopState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeLoop) History() []detection.HistoryEntry {
	return f.history
}

func (f *fakeLoop) SetDisplaySize(w, h int) error {
	if f.displayErr != nil {
		return f.displayErr
	}
	f.display = [2]int{w, h}
	return nil
}

type fakeCameras struct {
	devices    []camera.Device
	enumErr    error
	acquireErr error
	held       bool
	current    camera.Constraints
	acquired   []camera.Constraints
	switched   []string
	released   int
}

func (f *fakeCameras) DriverName() string { return "fake" }

func (f *fakeCameras) Enumerate(context.Context) ([]camera.Device, error) {
	return f.devices, f.enumErr
}

func (f *fakeCameras) Acquire(_ context.Context, c camera.Constraints) (camera.Source, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	if c.DeviceID == "" && len(f.devices) > 0 {
		c.DeviceID = f.devices[0].ID
	}
	f.acquired = append(f.acquired, c)
	f.held = true
	f.current = c
	return camera.NewImageSource(image.NewRGBA(image.Rect(0, 0, 320, 240))), nil
}

func (f *fakeCameras) Switch(ctx context.Context, deviceID string) (camera.Source, error) {
	f.switched = append(f.switched, deviceID)
	c := f.current
	c.DeviceID = deviceID
	return f.Acquire(ctx, c)
}

func (f *fakeCameras) Release() error {
	f.released++
	f.held = false
	return nil
}

func (f *fakeCameras) Source() (camera.Source, error) {
	if !f.held {
		return nil, camera.ErrNoSource
	}
	return camera.NewImageSource(nil), nil
}

func (f *fakeCameras) Current() (camera.Constraints, bool) {
	return f.current, f.held
}

var testDefaults = camera.Constraints{Width: 640, Height: 480, FPS: 15}

func setupTestStore(t *testing.T) *record.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	store := record.NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func newTestHandler(t *testing.T) (*Handler, *fakeLoop, *fakeCameras) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := &fakeLoop{}
	cams := &fakeCameras{devices: []camera.Device{{ID: "/dev/video0", Label: "Integrated"}, {ID: "/dev/video2", Label: "USB"}}}
	h := NewHandler(loop, cams, testDefaults, setupTestStore(t), nil, nil, logger)
	return h, loop, cams
}

func newRequest(method, path, body string) (*http.Request, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req, httptest.NewRecorder()
}

func expectStatus(t *testing.T, err error, status int) {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if httpErr.Code != status {
		t.Errorf("expected status %d, got %d", status, httpErr.Code)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, _ := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e.Group("/v1"))

	expected := []string{
		"POST /v1/detection/start",
		"POST /v1/detection/stop",
		"GET /v1/detection/state",
		"PUT /v1/detection/display",
		"GET /v1/cameras",
		"POST /v1/cameras/select",
		"DELETE /v1/cameras/current",
		"GET /v1/history",
		"GET /v1/detections",
		"GET /v1/detections/summary",
		"GET /v1/detections/:id/similar",
	}

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, route := range expected {
		if !registered[route] {
			t.Errorf("expected route %s to be registered", route)
		}
	}
}

func TestHandler_StartAcquiresDefaultCamera(t *testing.T) {
	h, loop, cams := newTestHandler(t)
	e := echo.New()

	req, rec := newRequest(http.MethodPost, "/v1/detection/start", "")
	if err := h.StartDetection(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if loop.started != 1 {
		t.Errorf("expected loop started once, got %d", loop.started)
	}
	if len(cams.acquired) != 1 || cams.acquired[0].Width != 640 {
		t.Errorf("expected default constraints acquired, got %+v", cams.acquired)
	}

	var resp dto.DetectionStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Active || resp.SessionID != "ses_test" {
		t.Errorf("expected active session, got %+v", resp)
	}
	if resp.Camera == nil || resp.Camera.ID != "/dev/video0" {
		t.Errorf("expected camera /dev/video0, got %+v", resp.Camera)
	}
}

func TestHandler_StartKeepsHeldCamera(t *testing.T) {
	h, _, cams := newTestHandler(t)
	cams.held = true
	cams.current = camera.Constraints{DeviceID: "/dev/video2"}
	e := echo.New()

	req, rec := newRequest(http.MethodPost, "/v1/detection/start", "")
	if err := h.StartDetection(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cams.acquired) != 0 {
		t.Errorf("expected no acquire, got %d", len(cams.acquired))
	}
}

func TestHandler_StartWithDevice(t *testing.T) {
	h, _, cams := newTestHandler(t)
	cams.held = true
	cams.current = camera.Constraints{DeviceID: "/dev/video0", Width: 640}
	e := echo.New()

	req, rec := newRequest(http.MethodPost, "/v1/detection/start", `{"device_id":"/dev/video2"}`)
	if err := h.StartDetection(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cams.switched) != 1 || cams.switched[0] != "/dev/video2" {
		t.Errorf("expected switch to /dev/video2, got %v", cams.switched)
	}
}

func TestHandler_StartErrors(t *testing.T) {
	tests := []struct {
		name       string
		acquireErr error
		startErr   error
		status     int
	}{
		{name: "permission denied", acquireErr: camera.ErrPermissionDenied, status: http.StatusForbidden},
		{name: "camera not found", acquireErr: camera.ErrCameraNotFound, status: http.StatusNotFound},
		{name: "inference unavailable", startErr: fmt.Errorf("%w: dial tcp", detection.ErrInferenceUnavailable), status: http.StatusServiceUnavailable},
		{name: "no stream", startErr: fmt.Errorf("%w: %w", detection.ErrNoStream, camera.ErrNoSource), status: http.StatusConflict},
		{name: "disposed", startErr: detection.ErrDisposed, status: http.StatusServiceUnavailable},
		{name: "unexpected", startErr: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, loop, cams := newTestHandler(t)
			cams.acquireErr = tt.acquireErr
			loop.startErr = tt.startErr
			e := echo.New()

			req, rec := newRequest(http.MethodPost, "/v1/detection/start", "")
			err := h.StartDetection(e.NewContext(req, rec))
			expectStatus(t, err, tt.status)
		})
	}
}

func TestHandler_StartInvalidBody(t *testing.T) {
	h, _, _ := newTestHandler(t)
	e := echo.New()

	req, rec := newRequest(http.MethodPost, "/v1/detection/start", `{invalid`)
	err := h.StartDetection(e.NewContext(req, rec))
	expectStatus(t, err, http.StatusBadRequest)
}

func TestHandler_StopDetection(t *testing.T) {
	h, loop, _ := newTestHandler(t)
	loop.state.Active = true
	e := echo.New()

	req, rec := newRequest(http.MethodPost, "/v1/detection/stop", "")
	if err := h.StopDetection(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loop.stopped != 1 {
		t.Errorf("expected stop, got %d", loop.stopped)
	}

	var resp dto.DetectionStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Active {
		t.Error("expected inactive state")
	}
}

func TestHandler_GetState(t *testing.T) {
	h, loop, _ := newTestHandler(t)
	loop.state = detection.LoopState{
		SessionID:      "ses_abc",
		Active:         true,
		SkipFrameCount: 1,
		MaxSkipFrames:  3,
		LastSuccess:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		LastLatency:    150 * time.Millisecond,
		CurrentFaces: []detection.OverlaySpec{
			{Emotion: inference.EmotionHappy, Confidence: 0.9, Label: "Happy 90%", Box: detection.Box{X: 200, Y: 100, Width: 160, Height: 180}},
		},
		Stats: detection.Stats{Submitted: 4, Completed: 3, Failed: 1},
	}
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/detection/state", "")
	if err := h.GetState(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.DetectionStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.MaxSkipFrames != 3 || resp.SkipFrameCount != 1 {
		t.Errorf("unexpected skip state: %+v", resp)
	}
	if resp.LastLatencyMs != 150 {
		t.Errorf("expected latency 150, got %d", resp.LastLatencyMs)
	}
	if resp.LastSuccess == nil {
		t.Error("expected last success")
	}
	if len(resp.Faces) != 1 || resp.Faces[0].Box.Width != 160 {
		t.Errorf("unexpected faces: %+v", resp.Faces)
	}
	if resp.Stats.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", resp.Stats.Failed)
	}
}

func TestHandler_SetDisplay(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		displayErr error
		status     int
	}{
		{name: "valid", body: `{"width":640,"height":480}`, status: http.StatusOK},
		{name: "zero width", body: `{"width":0,"height":480}`, status: http.StatusBadRequest},
		{name: "negative height", body: `{"width":640,"height":-1}`, status: http.StatusBadRequest},
		{name: "malformed", body: `{"width":`, status: http.StatusBadRequest},
		{name: "rejected by loop", body: `{"width":640,"height":480}`, displayErr: errors.New("invalid display size"), status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, loop, _ := newTestHandler(t)
			loop.displayErr = tt.displayErr
			e := echo.New()

			req, rec := newRequest(http.MethodPut, "/v1/detection/display", tt.body)
			err := h.SetDisplay(e.NewContext(req, rec))
			if tt.status == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if loop.display != [2]int{640, 480} {
					t.Errorf("expected display 640x480, got %v", loop.display)
				}
				return
			}
			expectStatus(t, err, tt.status)
		})
	}
}

func TestHandler_SetDisplayValidationDetails(t *testing.T) {
	h, _, _ := newTestHandler(t)
	e := echo.New()

	req, rec := newRequest(http.MethodPut, "/v1/detection/display", `{"width":0,"height":0}`)
	err := h.SetDisplay(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	apiErr, ok := httpErr.Message.(*shared.APIError)
	if !ok {
		t.Fatalf("expected *shared.APIError, got %T", httpErr.Message)
	}
	problems, ok := apiErr.Details.([]dto.ValidationError)
	if !ok || len(problems) != 2 {
		t.Errorf("expected 2 validation errors, got %v", apiErr.Details)
	}
}

func TestHandler_ListCameras(t *testing.T) {
	h, _, cams := newTestHandler(t)
	cams.held = true
	cams.current = camera.Constraints{DeviceID: "/dev/video2"}
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/cameras", "")
	if err := h.ListCameras(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.CameraListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Driver != "fake" {
		t.Errorf("expected fake driver, got %s", resp.Driver)
	}
	if len(resp.Devices) != 2 || resp.Devices[1].Label != "USB" {
		t.Errorf("unexpected devices: %+v", resp.Devices)
	}
	if resp.Current != "/dev/video2" {
		t.Errorf("expected current /dev/video2, got %s", resp.Current)
	}
}

func TestHandler_ListCamerasPermissionDenied(t *testing.T) {
	h, _, cams := newTestHandler(t)
	cams.enumErr = fmt.Errorf("enumerate devices: %w", camera.ErrPermissionDenied)
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/cameras", "")
	expectStatus(t, h.ListCameras(e.NewContext(req, rec)), http.StatusForbidden)
}

func TestHandler_SelectCamera(t *testing.T) {
	t.Run("missing device", func(t *testing.T) {
		h, _, _ := newTestHandler(t)
		e := echo.New()
		req, rec := newRequest(http.MethodPost, "/v1/cameras/select", `{}`)
		expectStatus(t, h.SelectCamera(e.NewContext(req, rec)), http.StatusBadRequest)
	})

	t.Run("no camera held acquires with defaults", func(t *testing.T) {
		h, _, cams := newTestHandler(t)
		e := echo.New()
		req, rec := newRequest(http.MethodPost, "/v1/cameras/select", `{"device_id":"/dev/video2"}`)
		if err := h.SelectCamera(e.NewContext(req, rec)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cams.acquired) != 1 {
			t.Fatalf("expected one acquire, got %d", len(cams.acquired))
		}
		got := cams.acquired[0]
		if got.DeviceID != "/dev/video2" || got.FPS != 15 {
			t.Errorf("expected defaults with device, got %+v", got)
		}
	})

	t.Run("held camera switches", func(t *testing.T) {
		h, _, cams := newTestHandler(t)
		cams.held = true
		e := echo.New()
		req, rec := newRequest(http.MethodPost, "/v1/cameras/select", `{"device_id":"/dev/video2"}`)
		if err := h.SelectCamera(e.NewContext(req, rec)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cams.switched) != 1 {
			t.Errorf("expected one switch, got %d", len(cams.switched))
		}
	})

	t.Run("device not found", func(t *testing.T) {
		h, _, cams := newTestHandler(t)
		cams.acquireErr = camera.ErrCameraNotFound
		e := echo.New()
		req, rec := newRequest(http.MethodPost, "/v1/cameras/select", `{"device_id":"/dev/video9"}`)
		expectStatus(t, h.SelectCamera(e.NewContext(req, rec)), http.StatusNotFound)
	})
}

func TestHandler_ReleaseCamera(t *testing.T) {
	h, loop, cams := newTestHandler(t)
	cams.held = true
	e := echo.New()

	req, rec := newRequest(http.MethodDelete, "/v1/cameras/current", "")
	if err := h.ReleaseCamera(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if loop.stopped != 1 || cams.released != 1 {
		t.Errorf("expected stop and release, got stop=%d release=%d", loop.stopped, cams.released)
	}
}

func TestHandler_GetHistoryFromMemory(t *testing.T) {
	h, loop, _ := newTestHandler(t)
	loop.history = []detection.HistoryEntry{
		{Emotion: inference.EmotionSad, Confidence: 0.61},
		{Emotion: inference.EmotionHappy, Confidence: 0.9},
	}
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/history", "")
	if err := h.GetHistory(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "memory" {
		t.Errorf("expected memory source, got %s", resp.Source)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Emotion != "sad" || resp.Entries[0].Percent != 61 {
		t.Errorf("unexpected entries: %+v", resp.Entries)
	}
}

func TestHandler_GetHistoryFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	history := record.NewHistoryStore(client)
	if err := history.Push(context.Background(), detection.HistoryEntry{Emotion: inference.EmotionNeutral, Confidence: 0.5}); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(&fakeLoop{}, &fakeCameras{}, testDefaults, setupTestStore(t), nil, history, logger)
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/history", "")
	if err := h.GetHistory(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp dto.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Source != "redis" {
		t.Errorf("expected redis source, got %s", resp.Source)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Emotion != "neutral" {
		t.Errorf("unexpected entries: %+v", resp.Entries)
	}
}

func TestHandler_ListDetectionsAndSummary(t *testing.T) {
	h, _, _ := newTestHandler(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := h.store.CreateBatch(ctx, []*record.Detection{
		{SessionID: "ses_a", Emotion: "happy", Confidence: 0.9, CreatedAt: base},
		{SessionID: "ses_a", Emotion: "happy", Confidence: 0.7, CreatedAt: base.Add(time.Second)},
		{SessionID: "ses_b", Emotion: "sad", Confidence: 0.6, CreatedAt: base.Add(2 * time.Second)},
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/detections?session_id=ses_a&limit=1", "")
	if err := h.ListDetections(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var list dto.DetectionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list.Detections) != 1 || list.Detections[0].Confidence != 0.7 {
		t.Errorf("expected newest ses_a record, got %+v", list.Detections)
	}

	req, rec = newRequest(http.MethodGet, "/v1/detections/summary", "")
	if err := h.GetSummary(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var summary dto.DetectionSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Total != 3 {
		t.Errorf("expected total 3, got %d", summary.Total)
	}
	if len(summary.Emotions) != 2 || summary.Emotions[0].Emotion != "happy" {
		t.Errorf("unexpected summary: %+v", summary.Emotions)
	}
}

func TestHandler_GetSimilarWithoutVectors(t *testing.T) {
	h, _, _ := newTestHandler(t)
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/detections/abc/similar", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	expectStatus(t, h.GetSimilar(c), http.StatusServiceUnavailable)
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 50},
		{"limit=10", 10},
		{"limit=0", 50},
		{"limit=abc", 50},
		{"limit=9999", 500},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			c := e.NewContext(req, httptest.NewRecorder())
			if got := queryInt(c, "limit", defaultListLimit, maxListLimit); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
