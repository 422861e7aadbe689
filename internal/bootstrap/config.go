package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr string
	GRPCAddr   string
	LogLevel   string

	InferenceURL     string
	InferenceTimeout time.Duration

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	CameraDriver    string
	CameraDevice    string
	CameraStillPath string
	CameraWidth     int
	CameraHeight    int
	CameraFPS       int

	DetectInterval time.Duration
	StaleAfter     time.Duration
	MaxSendWidth   int
	MaxSendHeight  int
	JPEGQuality    int
	AutoStart      bool

	CORSOrigins []string
	StaticDir   string
	IndexHTML   string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		GRPCAddr:   getEnv("GRPC_ADDR", ":50051"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		InferenceURL:     getEnv("INFERENCE_URL", "http://localhost:5000"),
		InferenceTimeout: getEnvDuration("INFERENCE_TIMEOUT_MS", 30*time.Second),

		DatabaseDSN: getEnv("DATABASE_DSN", "emotion.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		QdrantHost:   getEnv("QDRANT_HOST", ""),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		CameraDriver:    getEnv("CAMERA_DRIVER", "ffmpeg"),
		CameraDevice:    getEnv("CAMERA_DEVICE", ""),
		CameraStillPath: getEnv("CAMERA_STILL_PATH", ""),
		CameraWidth:     getEnvInt("CAMERA_WIDTH", 640),
		CameraHeight:    getEnvInt("CAMERA_HEIGHT", 480),
		CameraFPS:       getEnvInt("CAMERA_FPS", 15),

		DetectInterval: getEnvDuration("DETECT_INTERVAL_MS", 300*time.Millisecond),
		StaleAfter:     getEnvDuration("STALE_AFTER_MS", 3*time.Second),
		MaxSendWidth:   getEnvInt("MAX_SEND_WIDTH", 320),
		MaxSendHeight:  getEnvInt("MAX_SEND_HEIGHT", 240),
		JPEGQuality:    getEnvInt("JPEG_QUALITY", 80),
		AutoStart:      getEnv("AUTO_START", "false") == "true",

		CORSOrigins: parseList(getEnv("CORS_ORIGINS", "*")),
		StaticDir:   getEnv("STATIC_DIR", "./static"),
		IndexHTML:   getEnv("INDEX_HTML", "./static/index.html"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration reads a whole number of milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func parseList(envValue string) []string {
	var out []string
	for _, item := range strings.Split(envValue, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
