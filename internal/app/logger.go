package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bissquit/incident-console/internal/config"
)

// NewLogger builds a logger writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// OpenLogFile opens cfg.File for appending. With no file configured, logs
// are discarded. The returned close func is never nil.
func OpenLogFile(cfg config.LogConfig) (io.Writer, func() error, error) {
	if cfg.File == "" {
		return io.Discard, func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}
