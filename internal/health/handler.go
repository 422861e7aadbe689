package health

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines         int    `json:"goroutines"`
	MemoryAllocMB      uint64 `json:"memory_alloc_mb"`
	MemoryTotalAllocMB uint64 `json:"memory_total_alloc_mb"`
	MemorySysMB        uint64 `json:"memory_sys_mb"`
	NumGC              uint32 `json:"num_gc"`
}

type DetectionStats struct {
	Active        bool   `json:"active"`
	SessionID     string `json:"session_id,omitempty"`
	MaxSkipFrames int    `json:"max_skip_frames"`
	LastLatencyMs int64  `json:"last_latency_ms"`
	Submitted     int64  `json:"submitted"`
	Completed     int64  `json:"completed"`
	Failed        int64  `json:"failed"`
	Discarded     int64  `json:"discarded"`
}

type RequestStats struct {
	TotalRequests     uint64 `json:"total_requests"`
	ActiveConnections int64  `json:"active_connections"`
	OverlayClients    int    `json:"overlay_clients"`
}

type Stats struct {
	Detection DetectionStats `json:"detection"`
	Requests  RequestStats   `json:"requests"`
	Runtime   RuntimeStats   `json:"runtime"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Stats         Stats                      `json:"stats"`
	Components    map[string]ComponentStatus `json:"components"`
}

type CameraResponse struct {
	Held     bool   `json:"held"`
	Ready    bool   `json:"ready"`
	DeviceID string `json:"device_id,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type DetectionResponse struct {
	Detection DetectionStats `json:"detection"`
	Camera    CameraResponse `json:"camera"`
}

// InferenceProbe reports whether the inference service answered recently.
type InferenceProbe interface {
	Ping(ctx context.Context) bool
}

type LoopStatus interface {
	State() detection.LoopState
}

type CameraStatus interface {
	Source() (camera.Source, error)
	Current() (camera.Constraints, bool)
}

type ClientCounter interface {
	ClientCount() int
}

type Handler struct {
	db        *gorm.DB
	redis     *redis.Client
	qdrant    *qdrant.Client
	inference InferenceProbe
	loop      LoopStatus
	cameras   CameraStatus
	overlay   ClientCounter
	version   string
	startTime time.Time

	totalRequests     uint64
	activeConnections int64
}

func NewHandler(
	db *gorm.DB,
	redis *redis.Client,
	qdrant *qdrant.Client,
	inference InferenceProbe,
	loop LoopStatus,
	cameras CameraStatus,
	overlay ClientCounter,
	version string,
) *Handler {
	return &Handler{
		db:        db,
		redis:     redis,
		qdrant:    qdrant,
		inference: inference,
		loop:      loop,
		cameras:   cameras,
		overlay:   overlay,
		version:   version,
		startTime: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
	e.GET("/health/detection", h.Detection)
}

func (h *Handler) IncrementRequests() {
	atomic.AddUint64(&h.totalRequests, 1)
}

func (h *Handler) IncrementConnections() {
	atomic.AddInt64(&h.activeConnections, 1)
}

func (h *Handler) DecrementConnections() {
	atomic.AddInt64(&h.activeConnections, -1)
}

func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	components := make(map[string]ComponentStatus)
	var mu sync.Mutex
	var wg sync.WaitGroup

	checks := []struct {
		name  string
		check func(context.Context) ComponentStatus
	}{
		{"database", h.checkDatabase},
		{"redis", h.checkRedis},
		{"qdrant", h.checkQdrant},
		{"inference", h.checkInference},
		{"camera", h.checkCamera},
	}

	wg.Add(len(checks))
	for _, check := range checks {
		go func(name string, fn func(context.Context) ComponentStatus) {
			defer wg.Done()
			status := fn(ctx)
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}(check.name, check.check)
	}
	wg.Wait()

	overall := overallStatus(components)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	overlayClients := 0
	if h.overlay != nil {
		overlayClients = h.overlay.ClientCount()
	}

	resp := HealthResponse{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Stats: Stats{
			Detection: h.detectionStats(),
			Requests: RequestStats{
				TotalRequests:     atomic.LoadUint64(&h.totalRequests),
				ActiveConnections: atomic.LoadInt64(&h.activeConnections),
				OverlayClients:    overlayClients,
			},
			Runtime: RuntimeStats{
				Goroutines:         runtime.NumGoroutine(),
				MemoryAllocMB:      memStats.Alloc / 1024 / 1024,
				MemoryTotalAllocMB: memStats.TotalAlloc / 1024 / 1024,
				MemorySysMB:        memStats.Sys / 1024 / 1024,
				NumGC:              memStats.NumGC,
			},
		},
		Components: components,
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, resp)
}

func (h *Handler) Detection(c echo.Context) error {
	resp := DetectionResponse{Detection: h.detectionStats()}

	if h.cameras != nil {
		cur, held := h.cameras.Current()
		resp.Camera.Held = held
		if held {
			resp.Camera.DeviceID = cur.DeviceID
			if src, err := h.cameras.Source(); err == nil {
				resp.Camera.Ready = src.Ready()
				size := src.Size()
				resp.Camera.Width = size.Width
				resp.Camera.Height = size.Height
			}
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) detectionStats() DetectionStats {
	if h.loop == nil {
		return DetectionStats{}
	}
	s := h.loop.State()
	return DetectionStats{
		Active:        s.Active,
		SessionID:     s.SessionID,
		MaxSkipFrames: s.MaxSkipFrames,
		LastLatencyMs: s.LastLatency.Milliseconds(),
		Submitted:     s.Stats.Submitted,
		Completed:     s.Stats.Completed,
		Failed:        s.Stats.Failed,
		Discarded:     s.Stats.Discarded,
	}
}

func (h *Handler) checkDatabase(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.db == nil {
		return since(start, StatusUnhealthy, "database not configured")
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return since(start, StatusUnhealthy, "failed to get underlying db")
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return since(start, StatusUnhealthy, "ping failed")
	}

	return since(start, evaluateDBStats(sqlDB.Stats()), "")
}

func evaluateDBStats(stats sql.DBStats) Status {
	if stats.OpenConnections >= stats.MaxOpenConnections && stats.MaxOpenConnections > 0 {
		return StatusDegraded
	}
	return StatusHealthy
}

func (h *Handler) checkRedis(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.redis == nil {
		return since(start, StatusUnhealthy, "redis not configured")
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		return since(start, StatusUnhealthy, "ping failed")
	}

	return since(start, StatusHealthy, "")
}

func (h *Handler) checkQdrant(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.qdrant == nil {
		return since(start, StatusUnhealthy, "qdrant not configured")
	}

	if _, err := h.qdrant.ListCollections(ctx); err != nil {
		return since(start, StatusUnhealthy, "list collections failed")
	}

	return since(start, StatusHealthy, "")
}

func (h *Handler) checkInference(ctx context.Context) ComponentStatus {
	start := time.Now()
	if h.inference == nil {
		return since(start, StatusUnhealthy, "inference client not configured")
	}

	if !h.inference.Ping(ctx) {
		return since(start, StatusUnhealthy, "unreachable")
	}

	return since(start, StatusHealthy, "")
}

func (h *Handler) checkCamera(_ context.Context) ComponentStatus {
	start := time.Now()
	if h.cameras == nil {
		return since(start, StatusUnhealthy, "camera not configured")
	}

	src, err := h.cameras.Source()
	if err != nil {
		return since(start, StatusDegraded, "no camera acquired")
	}
	if !src.Ready() {
		return since(start, StatusDegraded, "waiting for first frame")
	}

	return since(start, StatusHealthy, "")
}

func since(start time.Time, status Status, msg string) ComponentStatus {
	return ComponentStatus{
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
		Error:     msg,
	}
}

var criticalComponents = []string{"database", "inference"}

// overallStatus is unhealthy when a critical component is down and
// degraded when anything else is not healthy.
func overallStatus(components map[string]ComponentStatus) Status {
	for _, name := range criticalComponents {
		if status, ok := components[name]; ok && status.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}

	for _, status := range components {
		if status.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}
