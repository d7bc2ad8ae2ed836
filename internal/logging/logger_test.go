package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"", logrus.InfoLevel},
		{"loud", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, InitLogger(tt.level, "text").GetLevel())
		})
	}
}

func TestInitLogger_Formats(t *testing.T) {
	assert.IsType(t, &logrus.JSONFormatter{}, InitLogger("info", "JSON").Formatter)
	assert.IsType(t, &logrus.TextFormatter{}, InitLogger("info", "text").Formatter)
	assert.IsType(t, &logrus.TextFormatter{}, InitLogger("info", "").Formatter)
}

func TestComponent(t *testing.T) {
	log := InitLogger("info", "json")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	Component(log, "validator").WithField("game_id", "g1").Info("row rejected")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "validator", line["component"])
	assert.Equal(t, "g1", line["game_id"])
	assert.Equal(t, "row rejected", line["msg"])
}
