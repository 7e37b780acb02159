package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "debug", "json")

	logger.WithField("task_id", "t1").Debug("moved")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "moved", entry["msg"])
	assert.Equal(t, "t1", entry["task_id"])
}

func TestNewWithOutput_UnknownLevel(t *testing.T) {
	logger := NewWithOutput(&bytes.Buffer{}, "chatty", "text")

	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*log.TextFormatter)
	assert.True(t, ok)
}
