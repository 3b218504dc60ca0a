// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/syncin/internal/domain/track"

// Summary is a playlist as listed in a featured/trending view, without tracks.
type Summary struct {
	ID          string
	Provider    track.Provider
	Name        string
	Description string
	ImageURL    string
	Owner       string
	TrackCount  int
}

// Playlist is a named, ordered set of tracks.
type Playlist struct {
	Summary
	Tracks []*track.Track
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total duration of all tracks in seconds.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, t := range p.Tracks {
		total += int64(t.DurationSec)
	}
	return total
}
