package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/panorama/pkg/ports"
)

func TestConsoleLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleWriter(ports.LevelInfo, &buf)

	log.Debug("hidden %d", 1)
	log.Info("visible %d", 2)
	log.Error("broken %s", "x")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "broken x")
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleWriter(ports.LevelDebug, &buf).WithComponent("sample")

	log.Debug("frame %d", 3)

	assert.Equal(t, "[sample] frame 3\n", buf.String())
}

func TestSlogLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewHandler("json", &buf, ports.LevelDebug, true))
	log := NewSlog(base).WithComponent("controller")

	log.Warn("retry %d", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "retry 2", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "controller", rec["component"])
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, SlogLevel(ports.LevelDebug))
	assert.Equal(t, slog.LevelInfo, SlogLevel(ports.LevelInfo))
	assert.Equal(t, slog.LevelError, SlogLevel(ports.LevelError))
	assert.Greater(t, SlogLevel(ports.LevelQuiet), slog.LevelError)
}

func TestNewHandler_Quiet(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlog(slog.New(NewHandler("text", &buf, ports.LevelQuiet, true)))

	log.Error("nothing")

	assert.Empty(t, strings.TrimSpace(buf.String()))
}
