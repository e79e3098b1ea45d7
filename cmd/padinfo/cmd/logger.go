package cmd

import (
	"context"
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"

	"github.com/MrWong99/padinfo/internal/config"
)

// newLogger builds the handler for format. The level is read on every
// record, so config reloads take effect without rebuilding the logger.
func newLogger(w io.Writer, format config.LogFormat, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case config.LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts))
	case config.LogFormatPretty:
		pretty := charmlog.NewWithOptions(w, charmlog.Options{
			Prefix:          "padinfo",
			ReportTimestamp: true,
			Formatter:       charmlog.TextFormatter,
			Level:           charmlog.DebugLevel,
		})
		return slog.New(levelHandler{Handler: pretty, level: level})
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

// levelHandler filters records below level before they reach the wrapped
// handler.
type levelHandler struct {
	slog.Handler
	level slog.Leveler
}

func (h levelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() && h.Handler.Enabled(ctx, l)
}

func (h levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h levelHandler) WithGroup(name string) slog.Handler {
	return levelHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
