package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/adapters/logger"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Severities(t *testing.T) {
	tests := []struct {
		name string
		log  func(*logger.Logger)
		want string
	}{
		{name: "info", log: func(l *logger.Logger) { l.Info("rendering all targets") }, want: "● rendering all targets\n"},
		{name: "success", log: func(l *logger.Logger) { l.Success("preview updated") }, want: "✓ preview updated\n"},
		{name: "warn", log: func(l *logger.Logger) { l.Warn("ffmpeg missing") }, want: "! ffmpeg missing\n"},
		{name: "error", log: func(l *logger.Logger) { l.Error(errors.New("boom")) }, want: "✗ Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogger_DebugRequiresVerbose(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Debug("hidden")
	assert.Empty(t, buf.String())

	lg.SetVerbose(true)
	lg.Debug("shown")
	assert.Equal(t, "○ shown\n", buf.String())

	lg.SetVerbose(false)
	lg.Debug("hidden again")
	assert.Equal(t, "○ shown\n", buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)

	assert.Empty(t, buf.String(), "Expected no output for nil error")
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Success("done")
	lg.Error(errors.New("broken"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "OK", first["level"])
	assert.Equal(t, "done", first["msg"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, "broken", second["error"])
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.SetJSON(true)
	lg.Info("json")
	lg.SetJSON(false)
	lg.Info("pretty")

	out := buf.String()
	assert.Contains(t, out, `"msg":"json"`)
	assert.Contains(t, out, "● pretty\n")
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	var h slog.Handler = logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	h = h.WithGroup("render").WithAttrs([]slog.Attr{slog.String("target", "SceneA")})

	slog.New(h).Info("started", "attempt", 2)

	assert.Equal(t, "● started render.target=SceneA render.attempt=2\n", buf.String())
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, buf := newTestLogger(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			lg.Info("tick")
		}()
		go func() {
			defer wg.Done()
			lg.SetVerbose(true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, strings.Count(buf.String(), "● tick\n"))
}
