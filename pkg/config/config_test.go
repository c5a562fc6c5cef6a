package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(nil, ""))

	cfg := m.Get()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "native", cfg.Ingest.TagOrder)
	assert.Equal(t, []string{".html", ".md", ".txt"}, cfg.Ingest.StaticExtensions)
	assert.Zero(t, cfg.Ingest.CloneTimeout)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "htp.yaml")
	content := []byte("log:\n  level: debug\ningest:\n  tag_order: semver\n  clone_timeout: 90s\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m := NewManager()
	require.NoError(t, m.Load(nil, path))

	cfg := m.Get()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "semver", cfg.Ingest.TagOrder)
	assert.Equal(t, 90*time.Second, cfg.Ingest.CloneTimeout)
	// untouched keys keep defaults
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "htp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log.level=error"}))

	m := NewManager()
	require.NoError(t, m.Load(flags, path))
	assert.Equal(t, "error", m.Get().Log.Level)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "htp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  tag_order: chronological\n"), 0o644))

	m := NewManager()
	err := m.Load(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestNormalizeExpandsPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ingest.DatabasePath = "~/fingerprints.yaml"
	require.NoError(t, normalize(&cfg))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "fingerprints.yaml"), cfg.Ingest.DatabasePath)
}
