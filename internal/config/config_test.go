package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 12, c.TopK)
	assert.Equal(t, 200*time.Millisecond, c.TickInterval)
	assert.Equal(t, 500*time.Millisecond, c.Transition)
	assert.Equal(t, "http://localhost:3000/api/getPopulation", c.URL)
}

func TestLoadFlags(t *testing.T) {
	c, err := Load([]string{"-k", "5", "--tick-interval", "1s", "--transition=0s", "--in", "data.json", "--view-split", "95"})
	require.NoError(t, err)
	assert.Equal(t, 5, c.TopK)
	assert.Equal(t, time.Second, c.TickInterval)
	assert.Equal(t, time.Duration(0), c.Transition)
	assert.Equal(t, "data.json", c.InputPath)
	assert.Equal(t, 80, c.ViewSplit)
}

func TestConfigFileUsesOptionNames(t *testing.T) {
	path := writeConfig(t, `{"topK": 8, "tickIntervalMs": 100, "transitionDurationMs": 250}`)
	c, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, 8, c.TopK)
	assert.Equal(t, 100*time.Millisecond, c.TickInterval)
	assert.Equal(t, 250*time.Millisecond, c.Transition)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, `{"topK": 8, "tickIntervalMs": 100}`)
	c, err := Load([]string{"--config", path, "--top-k", "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.TopK)
	assert.Equal(t, 100*time.Millisecond, c.TickInterval)
	assert.Equal(t, 500*time.Millisecond, c.Transition)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"top-k", []string{"-k", "0"}},
		{"tick", []string{"--tick-interval", "0s"}},
		{"transition", []string{"--transition=-1s"}},
		{"no input", []string{"--url", ""}},
		{"fps", []string{"--anim-fps", "0"}},
		{"log format", []string{"--log-format", "xml"}},
		{"unknown flag", []string{"--nope"}},
		{"missing file", []string{"--config", "/does/not/exist.json"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.args)
			assert.Error(t, err)
		})
	}

	bad := writeConfig(t, `{"topK": "many"}`)
	_, err := Load([]string{"--config", bad})
	assert.Error(t, err)

	zero := writeConfig(t, `{"topK": 0}`)
	_, err = Load([]string{"--config", zero})
	assert.EqualError(t, err, "--top-k must be >= 1")
}

func TestLoadServe(t *testing.T) {
	s, err := LoadServe([]string{"--data", "pop.json", "--cache-ttl", "5s"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:3000", s.Addr)
	assert.Equal(t, "pop.json", s.DataPath)
	assert.Equal(t, 5*time.Second, s.CacheTTL)

	_, err = LoadServe(nil)
	assert.EqualError(t, err, "--data is required")
}
