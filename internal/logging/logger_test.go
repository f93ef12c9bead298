package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winklock.log")

	logger := New(Options{FilePath: path})
	logger.Info("session started", zap.String("state", "INPUT"))
	logger.Debug("dropped below file level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "session started", entry["message"])
	assert.Equal(t, "INPUT", entry["state"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ConsoleOnly(t *testing.T) {
	logger := New(Options{Debug: true})
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
