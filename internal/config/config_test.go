package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigDir(t *testing.T, yaml string) {
	t.Helper()
	dir := t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.yaml"), []byte(yaml), 0o600))
	}
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("CONFIG_ENV", "test")
}

func TestLoad_Defaults(t *testing.T) {
	withConfigDir(t, "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "offer", cfg.Negotiation)
	assert.Equal(t, 10*time.Second, cfg.GatherTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 30, cfg.Stream.FPS)
	assert.Equal(t, "rotate", cfg.Stream.Transform)
	assert.Equal(t, time.Minute, cfg.RateLimit.Interval)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	withConfigDir(t, `
mode: debug
port: 9000
negotiation: answer
stream:
  fps: 15
ice_servers:
  - stun:stun.example.org:3478
`)
	t.Setenv("STAGESTREAM_STREAM_TRANSFORM", "edges")

	cfg, err := Load([]string{"--port", "9100"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "answer", cfg.Negotiation)
	assert.Equal(t, 15, cfg.Stream.FPS)
	assert.Equal(t, "edges", cfg.Stream.Transform)
	assert.Equal(t, []string{"stun:stun.example.org:3478"}, cfg.ICEServers)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	withConfigDir(t, "negotiation: trickle\n")
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownFlag(t *testing.T) {
	withConfigDir(t, "")
	_, err := Load([]string{"--bogus"})
	assert.Error(t, err)
}
