package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})
	log.Info("dropped")
	log.Warn("kept", "country", "India")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "India", rec["country"])
}

func TestNewTextDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "DEBUG", Output: &buf})
	log.Debug("tick", "index", 3)
	assert.Contains(t, buf.String(), "msg=tick")
	assert.Contains(t, buf.String(), "index=3")
}

func TestOpenFile(t *testing.T) {
	log, closer, err := OpenFile("", Config{})
	require.NoError(t, err)
	assert.Nil(t, closer)
	log.Error("nowhere")

	path := filepath.Join(t.TempDir(), "race.log")
	log, closer, err = OpenFile(path, Config{Format: "text"})
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
}
