package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/railbooking/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.WithField("booking_id", 7).Debug("reserved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reserved", line["msg"])
	assert.Equal(t, float64(7), line["booking_id"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := New(config.LogConfig{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
