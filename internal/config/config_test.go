package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config dir and the working directory at fresh
// temp dirs and clears TADA_* variables.
func isolate(t *testing.T) (userDir, workDir string) {
	t.Helper()
	userDir = t.TempDir()
	workDir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)
	for _, k := range []string{"STORE", "DATA_DIR", "DSN", "LATENCY_MS", "THEME", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE"} {
		t.Setenv(EnvPrefix+k, "")
	}
	prevDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	t.Cleanup(func() { _ = os.Chdir(prevDir) })
	return userDir, workDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	_, workDir := isolate(t)

	cfg, err := Load(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultStore, cfg.Store)
	assert.Equal(t, 300*time.Millisecond, cfg.Latency())
	assert.Equal(t, DefaultTheme, cfg.Theme)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, workDir, cfg.DataDir)
}

func TestLoad_Precedence(t *testing.T) {
	userDir, workDir := isolate(t)

	writeFile(t, filepath.Join(userDir, "tada", "config.toml"), `
store = "sqlite"
latency_ms = 10
theme = "neon"
log_level = "info"
`)
	writeFile(t, filepath.Join(workDir, ProjectFileName), `
latency_ms = 20
theme = "mono"
`)
	t.Setenv("TADA_THEME", "classic")
	t.Setenv("TADA_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-log-level", "error", "ls"})
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store)     // user file
	assert.Equal(t, 20, cfg.LatencyMS)       // project file
	assert.Equal(t, "classic", cfg.Theme)    // env
	assert.Equal(t, "error", cfg.LogLevel)   // flag
	assert.Equal(t, []string{"ls"}, fs.Args())
}

func TestLoad_Invalid(t *testing.T) {
	_, workDir := isolate(t)

	t.Setenv("TADA_LATENCY_MS", "soon")
	_, err := Load(nil, nil)
	assert.Error(t, err)
	t.Setenv("TADA_LATENCY_MS", "")

	t.Setenv("TADA_STORE", "redis")
	_, err = Load(nil, nil)
	assert.EqualError(t, err, `invalid store "redis"`)
	t.Setenv("TADA_STORE", "")

	t.Setenv("TADA_STORE", "postgres")
	_, err = Load(nil, nil)
	assert.EqualError(t, err, "store postgres needs a dsn")
	t.Setenv("TADA_DSN", "postgres://localhost/tada")
	cfg, err := Load(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/tada", cfg.DSN)
	t.Setenv("TADA_STORE", "")

	writeFile(t, filepath.Join(workDir, ProjectFileName), `colour = "red"`)
	_, err = Load(nil, nil)
	assert.ErrorContains(t, err, "unknown keys: colour")
}

func TestLoad_NegativeLatency(t *testing.T) {
	isolate(t)
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	_, err := Load(fs, []string{"-latency", "-5"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("TADA_TEST_DIR", "/srv/tada")

	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, filepath.Join(home, "todos"), expandPath("~/todos"))
	assert.Equal(t, "/srv/tada/data", expandPath("$TADA_TEST_DIR/data"))
}
