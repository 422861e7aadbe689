package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/spf13/cobra"
)

const Version = "1.0.0"

var (
	serverURL string
	timeoutMs int
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "emotionctl",
	Short:         "Talk to the emotion inference service and run detection from a terminal",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envString("EMOTION_SERVER", "http://localhost:5000"), "inference service base URL (env EMOTION_SERVER)")
	rootCmd.PersistentFlags().IntVar(&timeoutMs, "timeout", envInt("EMOTION_TIMEOUT_MS", 30000), "request timeout in milliseconds (env EMOTION_TIMEOUT_MS)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func newClient() *inference.Client {
	return inference.NewClient(inference.Config{
		BaseURL: serverURL,
		Timeout: time.Duration(timeoutMs) * time.Millisecond,
	})
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
