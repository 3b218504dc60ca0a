package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestInit_FileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "player.log")
	require.NoError(t, Init(Config{Output: "file", File: path, Level: "info", App: "player"}))
	defer Close()

	zlog.Info().Msgf("track selected: id=%s", "abc")
	zlog.Debug().Msg("hidden")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "player", entry["app"])
	assert.Equal(t, "track selected: id=abc", entry["message"])
}

func TestInit_FileOutputRequiresPath(t *testing.T) {
	assert.Error(t, Init(Config{Output: "file"}))
}

func TestInit_Discard(t *testing.T) {
	require.NoError(t, Init(Config{Output: "discard", Level: "debug"}))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.NoError(t, Close())
}
