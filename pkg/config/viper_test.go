package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  port: 9000\ndatabase:\n  host: db.internal\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.yaml"), yaml, 0o644))

	t.Setenv("DATABASE_HOST", "override.internal")

	v, err := Load(dir, "app")
	require.NoError(t, err)

	assert.Equal(t, 9000, v.GetInt("server.port"))
	assert.Equal(t, "override.internal", v.GetString("database.host"))
}

func TestLoadWithoutFile(t *testing.T) {
	v, err := Load(t.TempDir(), "missing")
	require.NoError(t, err)
	require.NotNil(t, v)

	v.SetDefault("server.port", 8000)
	assert.Equal(t, 8000, v.GetInt("server.port"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("YAYCHA_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("YAYCHA_TEST_VALUE", "default"))
	assert.Equal(t, "default", GetEnv("YAYCHA_TEST_UNSET_VALUE", "default"))
}
