package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureJSON(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log
	log = New(NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	t.Cleanup(func() { log = prev })
	return &buf
}

func TestInit(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	Init()
	assert.NotNil(t, log)
}

func TestInit_TextFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_LEVEL", "debug")
	Init()
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func TestLevelFromEnv(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for raw, want := range cases {
		t.Setenv("LOG_LEVEL", raw)
		assert.Equal(t, want, levelFromEnv(), raw)
	}
}

func TestPlainHelpers(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)

	Info("payment recorded", "gym_id", "g1")
	Error("commit failed")
	Debug("retrying")
	Warn("slow commit")

	out := buf.String()
	assert.Contains(t, out, "payment recorded")
	assert.Contains(t, out, `"gym_id":"g1"`)
	assert.Contains(t, out, "commit failed")
	assert.Contains(t, out, "retrying")
	assert.Contains(t, out, "slow commit")
}

func TestFormattedHelpers(t *testing.T) {
	buf := captureJSON(t, slog.LevelDebug)

	Infof("member %s enrolled", "u1")
	Errorf("attempt %d failed", 3)
	Debugf("due now %s", "700")

	out := buf.String()
	assert.Contains(t, out, "member u1 enrolled")
	assert.Contains(t, out, "attempt 3 failed")
	assert.Contains(t, out, "due now 700")
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	Debug("hidden")

	assert.Empty(t, buf.String())
}

func TestWithError(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	WithError(assert.AnError).Info("test with error")

	out := buf.String()
	assert.Contains(t, out, "test with error")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestWithFields(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	WithFields(map[string]interface{}{
		"key1": "value1",
		"key2": 123,
	}).Info("test with fields")

	out := buf.String()
	assert.Contains(t, out, "test with fields")
	assert.Contains(t, out, `"key1":"value1"`)
	assert.Contains(t, out, `"key2":123`)
}

func TestLogAtLevel(t *testing.T) {
	buf := captureJSON(t, slog.LevelWarn)

	Log(context.Background(), slog.LevelInfo, "quiet")
	Log(context.Background(), slog.LevelError, "HTTP request", "status", 500)

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"status":500`)
}
