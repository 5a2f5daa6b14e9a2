package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/polkiloo/storefront/internal/config"
)

// New creates a preconfigured slog.Logger.
func New() *slog.Logger {
	return newJSON(os.Stdout, slog.LevelInfo)
}

// ForConfig enables debug output outside production.
func ForConfig(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && !cfg.Production() {
		level = slog.LevelDebug
	}
	return newJSON(os.Stdout, level)
}

func newJSON(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Mask keeps a short prefix of a sensitive value so log lines can be correlated without leaking it.
func Mask(v string) string {
	const visible = 6
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return ""
	case len(v) <= visible:
		return strings.Repeat("*", len(v))
	default:
		return v[:visible] + "…"
	}
}
