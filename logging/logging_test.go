package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inmo_dedup/config"
)

func TestRotatingWriter_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	w, err := NewRotatingWriter(path, 16)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "01234567890123456789", string(backup))

	_, err = w.Write([]byte("fresh"))
	require.NoError(t, err)
	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(current))
}

func TestNewRotatingWriter_TruncatesOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	w, err := NewRotatingWriter(path, 32)
	require.NoError(t, err)
	defer w.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inmo.log")
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	w, err := Setup(config.LogConfig{Level: "info", Format: "console", File: path})
	require.NoError(t, err)
	require.NotNil(t, w)

	zap.L().Info("scrape finished", zap.String("site", "inmoclick"))
	zap.L().Debug("hidden")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"scrape finished"`)
	assert.Contains(t, string(data), `"site":"inmoclick"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestSetup_BadLevel(t *testing.T) {
	_, err := Setup(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
