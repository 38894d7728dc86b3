package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gomlx/cifar/pkg/data/cifar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig(t *testing.T) {
	// No flags set: defaults of the default source.
	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, cifar.C10Name, cfg.Source)
	assert.Equal(t, "~/work/cifar", cfg.DataDir)
	assert.True(t, cfg.ShowProgress)

	// Configuration file.
	configPath := filepath.Join(t.TempDir(), "cifar.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("source: cifar-10-binary\ndata_dir: /x\ndownload_timeout: 1m\n"), 0644))
	require.NoError(t, flag.Set("config", configPath))
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, cifar.C10BinaryName, cfg.Source)
	assert.Equal(t, "/x", cfg.DataDir)
	assert.Equal(t, time.Minute, cfg.DownloadTimeout)
	assert.False(t, cfg.ShowProgress)

	// Flags explicitly set take precedence.
	require.NoError(t, flag.Set("data", "/y"))
	require.NoError(t, flag.Set("timeout", "5s"))
	require.NoError(t, flag.Set("progress", "true"))
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, cifar.C10BinaryName, cfg.Source)
	assert.Equal(t, "/y", cfg.DataDir)
	assert.Equal(t, 5*time.Second, cfg.DownloadTimeout)
	assert.True(t, cfg.ShowProgress)

	// A different source resets the source dependent values.
	require.NoError(t, flag.Set("source", cifar.C100Name))
	cfg, err = buildConfig()
	require.NoError(t, err)
	assert.Equal(t, cifar.C100Name, cfg.Source)
	assert.Equal(t, 100, cfg.NumClasses)
	assert.Equal(t, 1, cfg.NumTrainFiles)
	require.NoError(t, cfg.Validate())

	require.NoError(t, flag.Set("source", "mnist"))
	_, err = buildConfig()
	assert.Error(t, err)
}

func TestSwitchSource(t *testing.T) {
	cfg := cifar.DefaultConfig("/data")
	cfg.ShowProgress = true
	cfg.DownloadTimeout = 3 * time.Minute
	cfg.URL = "https://mirror.example.com/cifar-10-python.tar.gz"
	cfg.Checksum = "deadbeef"
	cfg.Width = 16

	switched, err := switchSource(cfg, cifar.C100CoarseName)
	require.NoError(t, err)
	assert.Equal(t, cifar.C100CoarseName, switched.Source)
	assert.Equal(t, "/data", switched.DataDir)
	assert.True(t, switched.ShowProgress)
	assert.Equal(t, 3*time.Minute, switched.DownloadTimeout)
	assert.Empty(t, switched.URL)
	assert.Empty(t, switched.Checksum)
	assert.Equal(t, 32, switched.Width)
	assert.Equal(t, 20, switched.NumClasses)

	_, err = switchSource(cfg, "mnist")
	assert.Error(t, err)
}
