package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/lmittmann/tint"

	"github.com/user/panorama/pkg/ports"
)

// SlogLogger bridges ports.Logger onto a *slog.Logger.
// Messages are translated and formatted before they reach the handler,
// the component becomes a "component" attribute.
type SlogLogger struct {
	base      *slog.Logger
	component string
}

// NewSlog wraps an existing slog logger.
func NewSlog(base *slog.Logger) *SlogLogger {
	return &SlogLogger{base: base}
}

// NewHandler builds the slog handler for a log format.
// "json" selects slog's JSON handler, "text" the plain text handler,
// anything else the colored tint handler.
func NewHandler(format string, w io.Writer, level ports.LogLevel, noColor bool) slog.Handler {
	lvl := SlogLevel(level)
	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case "text":
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
			NoColor:    noColor,
		})
	}
}

// SlogLevel maps a ports.LogLevel onto slog levels.
// LevelQuiet maps above LevelError so nothing is emitted.
func SlogLevel(level ports.LogLevel) slog.Level {
	switch level {
	case ports.LevelDebug:
		return slog.LevelDebug
	case ports.LevelWarn:
		return slog.LevelWarn
	case ports.LevelError:
		return slog.LevelError
	case ports.LevelQuiet:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// Slog returns the underlying slog logger, e.g. for HTTP middleware.
func (l *SlogLogger) Slog() *slog.Logger {
	return l.base
}

func (l *SlogLogger) Debug(msg string, args ...interface{}) { l.emit(slog.LevelDebug, msg, args) }
func (l *SlogLogger) Info(msg string, args ...interface{})  { l.emit(slog.LevelInfo, msg, args) }
func (l *SlogLogger) Warn(msg string, args ...interface{})  { l.emit(slog.LevelWarn, msg, args) }
func (l *SlogLogger) Error(msg string, args ...interface{}) { l.emit(slog.LevelError, msg, args) }

func (l *SlogLogger) WithComponent(component string) ports.Logger {
	return &SlogLogger{
		base:      l.base.With(slog.String("component", component)),
		component: component,
	}
}

func (l *SlogLogger) emit(level slog.Level, msg string, args []interface{}) {
	l.base.Log(context.Background(), level, l10n.F(msg, args...))
}

var _ ports.Logger = (*SlogLogger)(nil)
