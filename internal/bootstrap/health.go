package bootstrap

import (
	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/eleven-am/emotion-monitor/internal/health"
	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/eleven-am/emotion-monitor/internal/overlay"
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	qdrant *qdrant.Client,
	client *inference.Client,
	loop *detection.Loop,
	cameras *camera.Manager,
	hub *overlay.Hub,
) *health.Handler {
	return health.NewHandler(
		db,
		redis,
		qdrant,
		client,
		loop,
		cameras,
		hub,
		version,
	)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
