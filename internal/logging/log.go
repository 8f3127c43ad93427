// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"

	"github.com/2339036/medication-adherence-system/internal/config"
)

// Preinit installs a console logger for use before configuration is loaded.
func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds the stderr handler for format writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	switch format {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return console.NewHandler(w, &console.HandlerOptions{Level: level})
	}
}

// Init installs the configured logger as the slog default. When cfg.File is
// set every record is also appended to that file as JSON; the returned closer
// releases it and must be called on shutdown.
func Init(cfg config.LogConfig) (io.Closer, error) {
	level := ParseLevel(cfg.Level)
	stderr := NewHandler(os.Stderr, cfg.Format, level)

	if cfg.File == "" {
		slog.SetDefault(slog.New(stderr))
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		stderr,
		slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}),
	)))
	return f, nil
}
