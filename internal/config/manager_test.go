package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestManagerLoadsYAML(t *testing.T) {
	path := writeTempFile(t, "app.yaml", `
server:
  port: 8080
  host: localhost
debug: true
`)

	m := NewManager(nil, NewFileSource(path, false))
	require.NoError(t, m.Load())

	assert.Equal(t, 8080, m.GetInt("server.port"))
	assert.Equal(t, "localhost", m.GetString("server.host"))
	assert.True(t, m.GetBool("debug"))
}

func TestManagerLaterSourceOverrides(t *testing.T) {
	base := writeTempFile(t, "base.yaml", "server:\n  port: 8080\n  host: localhost\n")
	override := writeTempFile(t, "override.yaml", "server:\n  port: 9090\n")

	m := NewManager(nil, NewFileSource(base, false), NewFileSource(override, false))
	require.NoError(t, m.Load())

	assert.Equal(t, 9090, m.GetInt("server.port"))
	// Sibling keys from the earlier source survive a partial override.
	assert.Equal(t, "localhost", m.GetString("server.host"))
}

func TestManagerDotenvSource(t *testing.T) {
	path := writeTempFile(t, ".env", "GANTRY_SERVER_PORT=7070\nGANTRY_APP_NAME=demo\nOTHER=ignored\n")

	m := NewManager(nil, NewDotenvSource(path, "GANTRY", false))
	require.NoError(t, m.Load())

	assert.Equal(t, 7070, m.GetInt("server.port"))
	assert.Equal(t, "demo", m.GetString("app.name"))
	assert.Nil(t, m.Get("other"))
}

func TestManagerEnvSource(t *testing.T) {
	t.Setenv("GANTRYTEST_SERVER_PORT", "6060")

	m := NewManager(nil, NewEnvSource("GANTRYTEST"))
	require.NoError(t, m.Load())

	assert.Equal(t, 6060, m.GetInt("server.port"))
}

func TestManagerOptionalMissingFile(t *testing.T) {
	m := NewManager(nil, NewFileSource("/does/not/exist.yaml", true))
	require.NoError(t, m.Load())

	m = NewManager(nil, NewFileSource("/does/not/exist.yaml", false))
	require.Error(t, m.Load())
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager(nil, NewStaticSource("defaults", map[string]any{
		"timeout": "250ms",
	}))
	require.NoError(t, m.Load())

	assert.Equal(t, 250*time.Millisecond, m.GetDuration("timeout"))
	assert.Equal(t, 5*time.Second, m.GetDuration("missing", 5*time.Second))
	assert.Equal(t, "fallback", m.GetString("missing", "fallback"))
	assert.Equal(t, 42, m.GetInt("missing", 42))
	assert.True(t, m.GetBool("missing", true))
}

func TestManagerBind(t *testing.T) {
	path := writeTempFile(t, "app.yaml", `
server:
  port: 8080
  host: 0.0.0.0
`)

	type serverConfig struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	}

	m := NewManager(nil, NewFileSource(path, false))
	require.NoError(t, m.Load())

	var cfg serverConfig
	require.NoError(t, m.Bind("server", &cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)

	require.Error(t, m.Bind("absent", &cfg))
}

func TestManagerSetAndReload(t *testing.T) {
	m := NewManager(nil, NewStaticSource("defaults", map[string]any{"a": 1}))
	require.NoError(t, m.Load())

	m.Set("b.c", "manual")
	assert.Equal(t, "manual", m.GetString("b.c"))

	// Reload replays sources only; manual values are dropped.
	require.NoError(t, m.Load())
	assert.Nil(t, m.Get("b.c"))
	assert.Equal(t, 1, m.GetInt("a"))
}
