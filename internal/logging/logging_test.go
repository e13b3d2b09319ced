package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Out: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "debug", Format: "json", Out: &buf})
	require.NoError(t, err)

	logger.Debug("fetched", "count", 2)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fetched", rec["msg"])
	assert.Equal(t, float64(2), rec["count"])
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tada.log")
	logger, closer, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("to file")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
}

func TestParse(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)

	f, err := ParseFormatter("logfmt")
	require.NoError(t, err)
	assert.Equal(t, log.LogfmtFormatter, f)

	_, err = ParseFormatter("xml")
	assert.Error(t, err)
}
