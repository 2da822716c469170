package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "production", "info")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("contact_id", "CON-1").Msg("created contact")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created contact", entry["message"])
	assert.Equal(t, "CON-1", entry["contact_id"])
	assert.Equal(t, "fishreg", entry["service"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "local", "debug")
	require.NoError(t, err)

	logger.Debug().Msg("matched organization")
	assert.Contains(t, buf.String(), "matched organization")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("local", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing log level")
}
