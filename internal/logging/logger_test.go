package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, config.ServicePosts, &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "posts", entry["service"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
}

func TestNewWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "nonsense"}, config.ServiceAuth, &buf)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
