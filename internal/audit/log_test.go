package audit

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRoundTrip(t *testing.T) {
	logger := NewLogger(filepath.Join(t.TempDir(), "nested", "audit.sqlite"))

	require.NoError(t, logger.LogEvent("cli", "evaluation_set", map[string]string{"concept": "A"}))
	require.NoError(t, logger.LogEvent("cli", "checklist_level_set", map[string]string{"level": "Detailed"}))

	events, err := logger.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "checklist_level_set", events[0].Type)
	assert.Equal(t, "evaluation_set", events[1].Type)
	assert.Equal(t, "cli", events[1].Actor)
	assert.NotEmpty(t, events[1].Timestamp)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[1].PayloadJSON), &payload))
	assert.Equal(t, "A", payload["concept"])

	limited, err := logger.Recent(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecentOnFreshDatabase(t *testing.T) {
	logger := NewLogger(filepath.Join(t.TempDir(), "audit.sqlite"))
	events, err := logger.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLogEventUsesEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.sqlite")
	t.Setenv("LCDKIT_AUDIT_DB", path)

	require.NoError(t, NewLogger("").LogEvent("test", "reset_all", nil))
	events, err := NewLogger(path).Recent(5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "null", events[0].PayloadJSON)
}
