// Package ports declares the interfaces the panorama pipeline depends on.
// Adapters under pkg/adapters implement them.
package ports

import "strings"

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	// LevelDebug covers per-component details (frame reads, search costs).
	LevelDebug LogLevel = iota
	// LevelInfo covers run-level progress.
	LevelInfo
	LevelWarn
	LevelError
	// LevelQuiet suppresses everything.
	LevelQuiet
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

// String returns the lower-case level name.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a level name. Unknown names map to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == s {
			return level
		}
	}
	if s == "warning" {
		return LevelWarn
	}
	return LevelInfo
}

// Logger is the logging abstraction used by every stage.
// msg is an English message key; adapters translate it with go-l10n
// and then apply args as fmt verbs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a logger that tags messages with component.
	WithComponent(component string) Logger
}
