// Package control exposes the detection loop, the camera and the stored
// detections over HTTP.
package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/eleven-am/emotion-monitor/internal/dto"
	"github.com/eleven-am/emotion-monitor/internal/record"
	"github.com/eleven-am/emotion-monitor/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	defaultListLimit    = 50
	maxListLimit        = 500
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50
)

// Loop is the subset of *detection.Loop the handler drives.
type Loop interface {
	Start(ctx context.Context) error
	Stop()
	State() detection.LoopState
	History() []detection.HistoryEntry
	SetDisplaySize(width, height int) error
}

// Cameras is the subset of *camera.Manager the handler drives.
type Cameras interface {
	DriverName() string
	Enumerate(ctx context.Context) ([]camera.Device, error)
	Acquire(ctx context.Context, c camera.Constraints) (camera.Source, error)
	Switch(ctx context.Context, deviceID string) (camera.Source, error)
	Release() error
	Source() (camera.Source, error)
	Current() (camera.Constraints, bool)
}

type Handler struct {
	loop     Loop
	cameras  Cameras
	defaults camera.Constraints
	store    *record.Store
	moments  *record.Moments
	history  *record.HistoryStore
	logger   *slog.Logger
}

// NewHandler accepts nil moments and history; the related routes then
// report the feature as unavailable or fall back to in-memory state.
func NewHandler(loop Loop, cameras Cameras, defaults camera.Constraints, store *record.Store, moments *record.Moments, history *record.HistoryStore, logger *slog.Logger) *Handler {
	return &Handler{
		loop:     loop,
		cameras:  cameras,
		defaults: defaults,
		store:    store,
		moments:  moments,
		history:  history,
		logger:   logger.With("handler", "control"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/detection/start", h.StartDetection)
	g.POST("/detection/stop", h.StopDetection)
	g.GET("/detection/state", h.GetState)
	g.PUT("/detection/display", h.SetDisplay)

	g.GET("/cameras", h.ListCameras)
	g.POST("/cameras/select", h.SelectCamera)
	g.DELETE("/cameras/current", h.ReleaseCamera)

	g.GET("/history", h.GetHistory)

	g.GET("/detections", h.ListDetections)
	g.GET("/detections/summary", h.GetSummary)
	g.GET("/detections/:id/similar", h.GetSimilar)
}

// StartDetection godoc
// @Summary      Start detection
// @Description  Acquires a camera if none is held, probes the inference service on first use and starts the detection loop. Starting an active loop is a no-op.
// @Tags         detection
// @Accept       json
// @Produce      json
// @Param        request  body      dto.StartDetectionRequest  false  "Optional camera to use"
// @Success      200      {object}  dto.DetectionStateResponse
// @Failure      400      {object}  shared.APIError
// @Failure      403      {object}  shared.APIError  "Camera permission denied"
// @Failure      404      {object}  shared.APIError  "No camera found"
// @Failure      409      {object}  shared.APIError  "No camera stream"
// @Failure      503      {object}  shared.APIError  "Inference service unreachable"
// @Router       /v1/detection/start [post]
func (h *Handler) StartDetection(c echo.Context) error {
	var req dto.StartDetectionRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return shared.BadRequest("invalid_request", "invalid request body")
		}
	}

	ctx := c.Request().Context()
	if req.DeviceID != "" {
		if err := h.useCamera(ctx, req.DeviceID); err != nil {
			return h.mapError(err)
		}
	} else if _, err := h.cameras.Source(); err != nil {
		if _, err := h.cameras.Acquire(ctx, h.defaults); err != nil {
			return h.mapError(err)
		}
	}

	if err := h.loop.Start(ctx); err != nil {
		return h.mapError(err)
	}

	return c.JSON(http.StatusOK, h.stateResponse())
}

// StopDetection godoc
// @Summary      Stop detection
// @Description  Stops ticking and clears overlays. The camera stays acquired and an in-flight response is discarded.
// @Tags         detection
// @Produce      json
// @Success      200  {object}  dto.DetectionStateResponse
// @Router       /v1/detection/stop [post]
func (h *Handler) StopDetection(c echo.Context) error {
	h.loop.Stop()
	return c.JSON(http.StatusOK, h.stateResponse())
}

// GetState godoc
// @Summary      Get detection state
// @Description  Returns the loop's adaptive state, current faces and counters
// @Tags         detection
// @Produce      json
// @Success      200  {object}  dto.DetectionStateResponse
// @Router       /v1/detection/state [get]
func (h *Handler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.stateResponse())
}

// SetDisplay godoc
// @Summary      Set display size
// @Description  Sets the rendered video size overlays are scaled to
// @Tags         detection
// @Accept       json
// @Produce      json
// @Param        request  body      dto.DisplaySizeRequest  true  "Rendered size in pixels"
// @Success      200      {object}  dto.DetectionStateResponse
// @Failure      400      {object}  shared.APIError
// @Router       /v1/detection/display [put]
func (h *Handler) SetDisplay(c echo.Context) error {
	var req dto.DisplaySizeRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}

	var problems []dto.ValidationError
	if req.Width <= 0 {
		problems = append(problems, dto.ValidationError{Field: "width", Message: "width must be positive"})
	}
	if req.Height <= 0 {
		problems = append(problems, dto.ValidationError{Field: "height", Message: "height must be positive"})
	}
	if len(problems) > 0 {
		return shared.NewAPIError("invalid_display_size", "display size must be positive").
			WithDetails(problems).
			ToHTTP(http.StatusBadRequest)
	}

	if err := h.loop.SetDisplaySize(req.Width, req.Height); err != nil {
		return shared.BadRequest("invalid_display_size", err.Error())
	}

	return c.JSON(http.StatusOK, h.stateResponse())
}

// ListCameras godoc
// @Summary      List cameras
// @Description  Enumerates capture devices known to the configured driver
// @Tags         cameras
// @Produce      json
// @Success      200  {object}  dto.CameraListResponse
// @Failure      403  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /v1/cameras [get]
func (h *Handler) ListCameras(c echo.Context) error {
	devices, err := h.cameras.Enumerate(c.Request().Context())
	if err != nil {
		return h.mapError(err)
	}

	resp := dto.CameraListResponse{
		Driver:  h.cameras.DriverName(),
		Devices: make([]dto.CameraResponse, len(devices)),
	}
	for i, d := range devices {
		resp.Devices[i] = dto.CameraResponse{ID: d.ID, Label: d.Label}
	}
	if cur, held := h.cameras.Current(); held {
		resp.Current = cur.DeviceID
	}

	return c.JSON(http.StatusOK, resp)
}

// SelectCamera godoc
// @Summary      Select camera
// @Description  Switches to another capture device, keeping resolution and frame rate. The loop keeps running on the new device.
// @Tags         cameras
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SelectCameraRequest  true  "Device to use"
// @Success      200      {object}  dto.CameraResponse
// @Failure      400      {object}  shared.APIError
// @Failure      403      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Router       /v1/cameras/select [post]
func (h *Handler) SelectCamera(c echo.Context) error {
	var req dto.SelectCameraRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.DeviceID == "" {
		return shared.BadRequest("device_required", "device_id is required")
	}

	if err := h.useCamera(c.Request().Context(), req.DeviceID); err != nil {
		return h.mapError(err)
	}

	return c.JSON(http.StatusOK, dto.CameraResponse{ID: req.DeviceID})
}

// ReleaseCamera godoc
// @Summary      Release camera
// @Description  Stops detection and releases the capture device
// @Tags         cameras
// @Success      204  "No Content"
// @Failure      500  {object}  shared.APIError
// @Router       /v1/cameras/current [delete]
func (h *Handler) ReleaseCamera(c echo.Context) error {
	h.loop.Stop()
	if err := h.cameras.Release(); err != nil {
		h.logger.Error("failed to release camera", "error", err)
		return shared.InternalError("release_failed", "failed to release camera")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetHistory godoc
// @Summary      Get recent emotions
// @Description  Returns the last ten detected emotions, newest first
// @Tags         history
// @Produce      json
// @Success      200  {object}  dto.HistoryResponse
// @Router       /v1/history [get]
func (h *Handler) GetHistory(c echo.Context) error {
	if h.history != nil {
		entries, err := h.history.Recent(c.Request().Context())
		if err == nil {
			return c.JSON(http.StatusOK, historyResponse("redis", entries))
		}
		h.logger.Warn("failed to read history from redis", "error", err)
	}
	return c.JSON(http.StatusOK, historyResponse("memory", h.loop.History()))
}

// ListDetections godoc
// @Summary      List detections
// @Description  Returns stored detections, newest first
// @Tags         detections
// @Produce      json
// @Param        session_id  query     string  false  "Only this session"
// @Param        limit       query     int     false  "Maximum records"  default(50)
// @Success      200         {object}  dto.DetectionListResponse
// @Failure      500         {object}  shared.APIError
// @Router       /v1/detections [get]
func (h *Handler) ListDetections(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	limit := queryInt(c, "limit", defaultListLimit, maxListLimit)

	records, err := h.store.ListRecent(c.Request().Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("failed to list detections", "error", err)
		return shared.InternalError("list_failed", "failed to list detections")
	}

	return c.JSON(http.StatusOK, dto.DetectionListResponse{
		SessionID:  sessionID,
		Detections: recordsToResponse(records),
	})
}

// GetSummary godoc
// @Summary      Summarize detections
// @Description  Returns count and mean confidence per emotion
// @Tags         detections
// @Produce      json
// @Param        session_id  query     string  false  "Only this session"
// @Success      200         {object}  dto.DetectionSummaryResponse
// @Failure      500         {object}  shared.APIError
// @Router       /v1/detections/summary [get]
func (h *Handler) GetSummary(c echo.Context) error {
	sessionID := c.QueryParam("session_id")

	rows, err := h.store.Summary(c.Request().Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to summarize detections", "error", err)
		return shared.InternalError("summary_failed", "failed to summarize detections")
	}

	resp := dto.DetectionSummaryResponse{
		SessionID: sessionID,
		Emotions:  make([]dto.EmotionSummaryResponse, len(rows)),
	}
	for i, r := range rows {
		resp.Total += r.Count
		resp.Emotions[i] = dto.EmotionSummaryResponse{
			Emotion:       r.Emotion,
			Count:         r.Count,
			AvgConfidence: r.AvgConfidence,
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// GetSimilar godoc
// @Summary      Find similar moments
// @Description  Returns detections whose emotion mix is closest to the given one
// @Tags         detections
// @Produce      json
// @Param        id     path      string  true   "Detection ID"
// @Param        limit  query     int     false  "Maximum records"  default(5)
// @Success      200    {object}  dto.DetectionListResponse
// @Failure      404    {object}  shared.APIError
// @Failure      503    {object}  shared.APIError  "Vector search not configured"
// @Router       /v1/detections/{id}/similar [get]
func (h *Handler) GetSimilar(c echo.Context) error {
	if h.moments == nil {
		return shared.ServiceUnavailable("vectors_disabled", "similarity search is not configured")
	}

	id := c.Param("id")
	limit := queryInt(c, "limit", defaultSimilarLimit, maxSimilarLimit)

	records, err := h.moments.Similar(c.Request().Context(), id, limit)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return shared.NotFound("detection_not_found", "detection not found")
		case errors.Is(err, record.ErrVectorsDisabled):
			return shared.ServiceUnavailable("vectors_disabled", "similarity search is not configured")
		}
		h.logger.Error("similarity search failed", "error", err, "id", id)
		return shared.InternalError("search_failed", "similarity search failed")
	}

	return c.JSON(http.StatusOK, dto.DetectionListResponse{Detections: recordsToResponse(records)})
}

func (h *Handler) useCamera(ctx context.Context, deviceID string) error {
	if _, held := h.cameras.Current(); held {
		_, err := h.cameras.Switch(ctx, deviceID)
		return err
	}
	c := h.defaults
	c.DeviceID = deviceID
	_, err := h.cameras.Acquire(ctx, c)
	return err
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, camera.ErrPermissionDenied):
		return shared.Forbidden("camera_permission_denied", "Camera permission denied")
	case errors.Is(err, camera.ErrCameraNotFound):
		return shared.NotFound("camera_not_found", "No camera found")
	case errors.Is(err, detection.ErrInferenceUnavailable):
		return shared.ServiceUnavailable("inference_unavailable", "Emotion service is unreachable")
	case errors.Is(err, detection.ErrNoStream):
		return shared.Conflict("no_stream", "No camera stream available")
	case errors.Is(err, detection.ErrDisposed):
		return shared.ServiceUnavailable("shutting_down", "Detection is shutting down")
	}
	h.logger.Error("request failed", "error", err)
	return shared.InternalError("internal_error", "internal error")
}

func (h *Handler) stateResponse() dto.DetectionStateResponse {
	s := h.loop.State()
	resp := dto.DetectionStateResponse{
		SessionID:      s.SessionID,
		Active:         s.Active,
		Pending:        s.Pending,
		SkipFrameCount: s.SkipFrameCount,
		MaxSkipFrames:  s.MaxSkipFrames,
		LastLatencyMs:  s.LastLatency.Milliseconds(),
		Faces:          make([]dto.OverlayResponse, len(s.CurrentFaces)),
		Geometry: dto.GeometryResponse{
			Display: dto.SizeResponse{Width: s.Geometry.Display.Width, Height: s.Geometry.Display.Height},
			Capture: dto.SizeResponse{Width: s.Geometry.Capture.Width, Height: s.Geometry.Capture.Height},
			Sent:    dto.SizeResponse{Width: s.Geometry.Sent.Width, Height: s.Geometry.Sent.Height},
		},
		Stats: dto.StatsResponse{
			Submitted: s.Stats.Submitted,
			Completed: s.Stats.Completed,
			Failed:    s.Stats.Failed,
			Discarded: s.Stats.Discarded,
		},
	}
	if !s.LastSuccess.IsZero() {
		t := s.LastSuccess
		resp.LastSuccess = &t
	}
	for i, o := range s.CurrentFaces {
		resp.Faces[i] = dto.OverlayResponse{
			Index:      o.Index,
			Emotion:    string(o.Emotion),
			Confidence: o.Confidence,
			Label:      o.Label,
			Box:        dto.BoxResponse{X: o.Box.X, Y: o.Box.Y, Width: o.Box.Width, Height: o.Box.Height},
		}
	}
	if cur, held := h.cameras.Current(); held {
		resp.Camera = &dto.CameraResponse{ID: cur.DeviceID}
	}
	return resp
}

func historyResponse(source string, entries []detection.HistoryEntry) dto.HistoryResponse {
	resp := dto.HistoryResponse{
		Source:  source,
		Entries: make([]dto.HistoryEntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Entries[i] = dto.HistoryEntryResponse{
			Emotion:    string(e.Emotion),
			Confidence: e.Confidence,
			Percent:    detection.Percent(e.Confidence),
			At:         e.At,
		}
	}
	return resp
}

func recordsToResponse(records []*record.Detection) []dto.DetectionRecordResponse {
	out := make([]dto.DetectionRecordResponse, len(records))
	for i, r := range records {
		out[i] = dto.DetectionRecordResponse{
			ID:         r.ID,
			SessionID:  r.SessionID,
			FaceIndex:  r.FaceIndex,
			Emotion:    r.Emotion,
			Confidence: r.Confidence,
			Scores:     r.Scores,
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
			LatencyMs:  r.LatencyMs,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out
}

func queryInt(c echo.Context, name string, def, ceiling int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
