package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/eleven-am/emotion-monitor/internal/control"
	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/eleven-am/emotion-monitor/internal/overlay"
	"github.com/eleven-am/emotion-monitor/internal/record"
	"go.uber.org/fx"
)

func ProvideInferenceClient(cfg *Config) *inference.Client {
	return inference.NewClient(inference.Config{
		BaseURL: cfg.InferenceURL,
		Timeout: cfg.InferenceTimeout,
	})
}

func ProvideCameraManager(cfg *Config, logger *slog.Logger) (*camera.Manager, error) {
	driver, err := camera.NewDriver(cfg.CameraDriver, camera.DriverConfig{
		StillPath: cfg.CameraStillPath,
	}, logger)
	if err != nil {
		return nil, err
	}
	return camera.NewManager(driver, logger), nil
}

func cameraDefaults(cfg *Config) camera.Constraints {
	return camera.Constraints{
		DeviceID: cfg.CameraDevice,
		Width:    cfg.CameraWidth,
		Height:   cfg.CameraHeight,
		FPS:      cfg.CameraFPS,
	}
}

func detectionConfig(cfg *Config) detection.Config {
	dc := detection.DefaultConfig()
	dc.Interval = cfg.DetectInterval
	dc.RequestTimeout = 2 * cfg.DetectInterval
	dc.StaleAfter = cfg.StaleAfter
	dc.MaxSendWidth = cfg.MaxSendWidth
	dc.MaxSendHeight = cfg.MaxSendHeight
	dc.JPEGQuality = cfg.JPEGQuality
	return dc
}

func ProvideOverlayHub(logger *slog.Logger) *overlay.Hub {
	return overlay.NewHub(logger)
}

func ProvideLoop(
	cfg *Config,
	client *inference.Client,
	cameras *camera.Manager,
	hub *overlay.Hub,
	recorder *record.Recorder,
	logger *slog.Logger,
) (*detection.Loop, error) {
	dc := detectionConfig(cfg)
	if err := dc.Validate(); err != nil {
		return nil, err
	}

	loop := detection.New(dc, client, cameras, hub, logger, detection.WithObserver(recorder))
	hub.OnDisplay(loop.SetDisplaySize)
	return loop, nil
}

func ProvideControlHandler(
	cfg *Config,
	loop *detection.Loop,
	cameras *camera.Manager,
	store *record.Store,
	moments *record.Moments,
	history *record.HistoryStore,
	logger *slog.Logger,
) *control.Handler {
	return control.NewHandler(loop, cameras, cameraDefaults(cfg), store, moments, history, logger)
}

func ProvideOverlayHandler(hub *overlay.Hub, logger *slog.Logger) *overlay.Handler {
	return overlay.NewHandler(hub, logger)
}

// ManageDetection releases the camera and stops the loop on shutdown and,
// with AUTO_START, acquires the default camera and starts detecting.
func ManageDetection(
	lc fx.Lifecycle,
	cfg *Config,
	loop *detection.Loop,
	cameras *camera.Manager,
	hub *overlay.Hub,
	logger *slog.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.AutoStart {
				return nil
			}
			go autoStart(loop, cameras, cameraDefaults(cfg), logger)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			loop.Dispose()
			hub.Close()
			return cameras.Release()
		},
	})
}

func autoStart(loop *detection.Loop, cameras *camera.Manager, defaults camera.Constraints, logger *slog.Logger) {
	ctx := context.Background()
	if _, err := cameras.Acquire(ctx, defaults); err != nil {
		logger.Error("auto start: failed to acquire camera", "error", err)
		return
	}
	if err := loop.Start(ctx); err != nil {
		logger.Error("auto start: failed to start detection", "error", err)
	}
}

var DetectionModule = fx.Options(
	fx.Provide(
		ProvideInferenceClient,
		ProvideCameraManager,
		ProvideOverlayHub,
		ProvideLoop,
		ProvideControlHandler,
		ProvideOverlayHandler,
	),
	fx.Invoke(ManageDetection),
)
