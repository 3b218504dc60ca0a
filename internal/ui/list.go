package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = playlistItem{}
)

// trackItem wraps [track.Track] to implement [list.Item].
type trackItem struct {
	track *track.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }

func (i trackItem) Title() string {
	if i.track.IsFavorite {
		return "♥ " + i.track.Title
	}
	return i.track.Title
}

func (i trackItem) Description() string {
	parts := []string{artistOf(i.track)}
	if i.track.Album != "" {
		parts = append(parts, i.track.Album)
	}
	parts = append(parts, track.FormatTime(float64(i.track.DurationSec)), string(i.track.Provider()))
	return strings.Join(parts, " • ")
}

// playlistItem wraps [playlist.Summary] to implement [list.Item].
type playlistItem struct {
	playlist playlist.Summary
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Owner != "" {
		desc = fmt.Sprintf("%s • by %s", desc, i.playlist.Owner)
	}
	return desc
}

func trackItems(tracks []*track.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func playlistItems(lists []playlist.Summary) []list.Item {
	items := make([]list.Item, len(lists))
	for i, pl := range lists {
		items[i] = playlistItem{playlist: pl}
	}
	return items
}

func artistOf(t *track.Track) string {
	if t.Artist == "" {
		return "Unknown Artist"
	}
	return t.Artist
}
