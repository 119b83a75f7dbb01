package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONLines(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	logger := NewLoggerTo(&buffer)

	logger.Info("user_login", map[string]any{"username": "alice"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "user_login", entry["message"])
	assert.Equal(t, "alice", entry["username"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLogger_FieldsCannotShadowCoreKeys(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	logger := NewLoggerTo(&buffer)

	logger.Error("real_message", map[string]any{"message": "forged", "level": "info"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "real_message", entry["message"])
}
