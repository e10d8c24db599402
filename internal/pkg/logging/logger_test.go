//go:build unit

package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactFormatter_Format(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "Lease recorded",
		Data: logrus.Fields{
			"mac":       "aa:bb:cc:dd:ee:ff",
			"component": "events",
			"ip":        "10.0.0.5",
			"kind":      "added",
		},
	}

	t.Run("WithTime", func(t *testing.T) {
		out, err := (&CompactFormatter{ShowTime: true}).Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "[13:04:05][INFO][events][aa:bb:cc:dd:ee:ff] Lease recorded (ip=10.0.0.5, kind=added)\n", string(out))
	})

	t.Run("WithoutTime", func(t *testing.T) {
		out, err := (&CompactFormatter{}).Format(entry)
		require.NoError(t, err)
		assert.Equal(t, "[INFO][events][aa:bb:cc:dd:ee:ff] Lease recorded (ip=10.0.0.5, kind=added)\n", string(out))
	})

	t.Run("NoFields", func(t *testing.T) {
		out, err := (&CompactFormatter{}).Format(&logrus.Entry{Level: logrus.WarnLevel, Message: "plain", Data: logrus.Fields{}})
		require.NoError(t, err)
		assert.Equal(t, "[WARNING] plain\n", string(out))
	})
}

func TestInitLoggerWithOutput(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	t.Run("LevelFilters", func(t *testing.T) {
		var buf bytes.Buffer
		InitLoggerWithOutput(LogConfig{Level: "warn", Format: "simple"}, &buf)

		WithComponent("query").Info("hidden")
		WithComponentAndInterface("monitor", "eth1").Warn("shown")
		assert.Equal(t, "[WARNING][monitor][eth1] shown\n", buf.String())
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		InitLoggerWithOutput(LogConfig{Level: "debug", Format: "json"}, &buf)
		buf.Reset()

		WithInterface("eth1").Debug("hello")
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "hello", decoded["msg"])
		assert.Equal(t, "eth1", decoded["interface"])
		assert.Equal(t, "debug", decoded["level"])
	})

	t.Run("InvalidLevelFallsBackToInfo", func(t *testing.T) {
		var buf bytes.Buffer
		InitLoggerWithOutput(LogConfig{Level: "loud", Format: "simple"}, &buf)

		assert.Equal(t, logrus.InfoLevel, GetLogger().GetLevel())
		assert.Contains(t, buf.String(), "Invalid log level 'loud'")
	})
}
