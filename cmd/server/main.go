package main

import (
	"github.com/eleven-am/emotion-monitor/internal/bootstrap"
)

// @title Emotion Monitor API
// @version 1.0.0
// @description Controls the real-time emotion detection loop, its camera and the recorded detections. Live overlays are streamed over the /v1/ws websocket.

// @BasePath /

func main() {
	bootstrap.Run()
}
