package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json handler honours level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("json", "warn", &buf)
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "member_id", "m-1")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
		assert.Equal(t, "shown", record["msg"])
		assert.Equal(t, "m-1", record["member_id"])
	})

	t.Run("text handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger("TEXT", "", &buf)
		require.NoError(t, err)

		logger.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := NewLogger("xml", "info", nil)
		assert.Error(t, err)

		_, err = NewLogger("json", "verbose", nil)
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"Info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range tests {
		got, err := ParseLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestContextWithLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	ctx := ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	assert.Nil(t, FromContext(context.Background()))
	assert.Equal(t, context.Background(), ContextWithLogger(context.Background(), nil))
}
