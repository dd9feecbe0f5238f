package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, DebugLevel)

	log.Debug("Debug message", map[string]interface{}{
		"key1": "value1",
	})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "DEBUG", entries[0]["level"])
	assert.Equal(t, "Debug message", entries[0]["message"])
	assert.Equal(t, "value1", entries[0]["key1"])
	assert.Contains(t, entries[0], "timestamp")
	assert.Contains(t, entries[0]["file"], "logger_test.go")
	assert.Contains(t, entries[0], "line")

	t.Run("levels are respected", func(t *testing.T) {
		buf.Reset()
		warnLogger := NewJSONLogger(&buf, WarnLevel)

		warnLogger.Debug("Should not appear", nil)
		warnLogger.Info("Should not appear", nil)
		assert.Equal(t, "", buf.String())

		warnLogger.Warn("Warning message", nil)
		warnLogger.Error("Error message", nil)
		entries := decodeLines(t, &buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "WARN", entries[0]["level"])
		assert.Equal(t, "ERROR", entries[1]["level"])
	})

	t.Run("context fields", func(t *testing.T) {
		buf.Reset()
		fieldsLogger := log.WithField("component", "page").WithFields(map[string]interface{}{
			"view": "login",
		})
		fieldsLogger.Info("With fields", map[string]interface{}{"path": "/login"})

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "page", entries[0]["component"])
		assert.Equal(t, "login", entries[0]["view"])
		assert.Equal(t, "/login", entries[0]["path"])
	})

	t.Run("message fields cannot clobber base fields", func(t *testing.T) {
		buf.Reset()
		log.Info("real message", map[string]interface{}{"message": "fake"})

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "real message", entries[0]["message"])
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" warn ")
	assert.NoError(t, err)
	assert.Equal(t, WarnLevel, level)

	level, err = ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, InfoLevel, level)
}

func TestSetDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	defer SetDefaultLogger(original)

	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	GetDefaultLogger().Info("via default", nil)
	assert.Contains(t, buf.String(), "via default")

	SetDefaultLogger(nil)
	assert.NotNil(t, GetDefaultLogger())
}
