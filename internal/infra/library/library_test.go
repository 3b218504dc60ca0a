package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/syncin/internal/domain/track"
)

func touch(t *testing.T, p string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Queen - Bohemian Rhapsody.mp3"))
	touch(t, filepath.Join(dir, "Divide", "Ed Sheeran - Perfect.MP3"))
	touch(t, filepath.Join(dir, "Divide", "cover.jpg"))
	touch(t, filepath.Join(dir, "loose.wav"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden", "Secret - Song.mp3"))

	tracks, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	byTitle := make(map[string]*track.Track)
	for _, tr := range tracks {
		require.NoError(t, tr.Validate())
		assert.True(t, tr.IsLocal())
		byTitle[tr.Title] = tr
	}

	perfect := byTitle["Perfect"]
	require.NotNil(t, perfect)
	assert.Equal(t, "Ed Sheeran", perfect.Artist)
	assert.Equal(t, "Divide", perfect.Album)
	assert.Equal(t, filepath.Join(dir, "Divide", "cover.jpg"), perfect.ArtURL)

	queen := byTitle["Bohemian Rhapsody"]
	require.NotNil(t, queen)
	assert.Equal(t, "My Music", queen.Album)
	assert.Equal(t, 0, queen.DurationSec, "undecodable files keep an unknown duration")

	loose := byTitle["loose"]
	require.NotNil(t, loose)
	assert.Equal(t, "Unknown Artist", loose.Artist)
}

func TestScan_StableIDs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "A - One.mp3"))

	first, err := Scan(dir)
	require.NoError(t, err)
	second, err := Scan(dir)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestScan_Errors(t *testing.T) {
	tracks, err := Scan("")
	assert.NoError(t, err)
	assert.Empty(t, tracks)

	_, err = Scan(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.mp3")
	touch(t, file)
	_, err = Scan(file)
	assert.Error(t, err)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, artist, title string
	}{
		{"Queen - Bohemian Rhapsody", "Queen", "Bohemian Rhapsody"},
		{"AC-DC - Thunderstruck", "AC-DC", "Thunderstruck"},
		{"untitled", "Unknown Artist", "untitled"},
		{" - Missing Artist", "Unknown Artist", "- Missing Artist"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			artist, title := splitName(tt.in)
			assert.Equal(t, tt.artist, artist)
			assert.Equal(t, tt.title, title)
		})
	}
}
