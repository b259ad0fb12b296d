package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"message":"kept"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "console")

	logger.Debug().Str("node_id", "n1").Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "node_id=")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "chatty", "json")

	logger.Debug().Msg("dropped")
	logger.Info().Msg("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
