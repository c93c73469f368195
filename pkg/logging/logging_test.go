package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gmbctl.log")

	logger, closeFn, err := NewFile(path, false)
	require.NoError(t, err)
	logger.Debugw("hidden")
	logger.Infow("failed to fetch locations", "error", "boom")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO")
	assert.Contains(t, string(data), "failed to fetch locations")
	assert.Contains(t, string(data), `"error": "boom"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestLevel(t *testing.T) {
	assert.True(t, New(true).Desugar().Core().Enabled(-1))
	assert.False(t, New(false).Desugar().Core().Enabled(-1))
}
