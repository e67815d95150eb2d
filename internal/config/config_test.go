// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 300*time.Second, cfg.Storage.CacheTTL)
	assert.Equal(t, 100, cfg.Storage.CacheCapacity)
	assert.Equal(t, 3, cfg.Storage.MaxRetries)
	assert.Equal(t, 16, cfg.Pools.TargetUploadConcurrency)
	assert.Equal(t, 4, cfg.Pools.RefreshConcurrency)
	assert.Equal(t, "zh", cfg.Naming.DefaultLanguage)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strmorg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("naming:\n  defaultLanguage: en\npools:\n  targetUploadConcurrency: 8\n"), 0o600))

	t.Setenv("STRMORG_POOL_TARGET_UPLOAD", "32")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Naming.DefaultLanguage, "file overlay applies when env is unset")
	assert.Equal(t, 32, cfg.Pools.TargetUploadConcurrency, "env overrides file")
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Storage.CacheTTL, cfg.Storage.CacheTTL)
}

func TestParseBool_InvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("STRMORG_TEST_BOOL", "not-a-bool")
	assert.True(t, ParseBool("STRMORG_TEST_BOOL", true))
}

func TestParseDuration(t *testing.T) {
	t.Setenv("STRMORG_TEST_DURATION", "45s")
	assert.Equal(t, 45*time.Second, ParseDuration("STRMORG_TEST_DURATION", time.Second))
}
