package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("json output respects level", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Level: "warn", JSON: true, Output: &buf})
		require.NoError(t, err)

		log.Info("dropped")
		log.Warn("kept", zap.String("connector_id", "acme"))

		out := buf.String()
		assert.NotContains(t, out, "dropped")
		assert.Contains(t, out, `"message":"kept"`)
		assert.Contains(t, out, `"connector_id":"acme"`)
	})

	t.Run("console output", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(Config{Output: &buf})
		require.NoError(t, err)

		log.Info("scan pass complete")
		assert.Contains(t, buf.String(), "scan pass complete")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(Config{Level: "loud"})
		assert.Error(t, err)
	})
}

func TestLevelForVerbosity(t *testing.T) {
	assert.Equal(t, "info", LevelForVerbosity("info", 0))
	assert.Equal(t, "debug", LevelForVerbosity("info", 1))
	assert.Equal(t, "debug", LevelForVerbosity("warn", 3))
}
