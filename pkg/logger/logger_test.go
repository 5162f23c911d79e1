package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	return line
}

func TestLogger_ErrorWithLabel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("debug", &buf)

	l.Error(errors.New("boom"), "MediaUseCase - Delete - uc.cleanup.DeleteObjects")

	line := decodeLine(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "MediaUseCase - Delete - uc.cleanup.DeleteObjects", line["message"])
}

func TestLogger_ErrorWithoutLabel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("debug", &buf)

	l.Error(errors.New("boom"))

	line := decodeLine(t, &buf)
	assert.Equal(t, "boom", line["error"])
	assert.NotContains(t, line, "message")
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Info("skipped %d", 1)
	assert.Zero(t, buf.Len())

	l.Warn("kept key=%s", "gallery/a.jpg")
	line := decodeLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "kept key=gallery/a.jpg", line["message"])
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("verbose", &buf)

	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Info("shown")
	assert.NotZero(t, buf.Len())
}
