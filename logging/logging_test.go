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

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Msg("hidden")
	log.Info().Int("validators", 3).Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "exactly one json line expected, got %q", buf.String())
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "loaded", entry["message"])
	assert.EqualValues(t, 3, entry["validators"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Level: "debug", Format: "console", Writer: &buf})
	require.NoError(t, err)
	log.Debug().Str("custodian", "coinbase").Msg("reconciling")
	assert.Contains(t, buf.String(), "reconciling")
	assert.Contains(t, buf.String(), "coinbase")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stakectl.log")
	log, closer, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)
	log.Warn().Msg("stuck")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"stuck"`)
}

func TestNew_Invalid(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
	_, _, err = New(Config{Level: "info", Format: "xml", Writer: &bytes.Buffer{}})
	assert.Error(t, err)
}
