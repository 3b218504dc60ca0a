// Package favorite provides the persisted favorite entry.
package favorite

import (
	"time"

	"github.com/osa030/syncin/internal/domain/track"
)

// Entry records a remote track the user marked as favorite.
type Entry struct {
	ID       string         `json:"id"`
	Provider track.Provider `json:"provider"`
	Track    Snapshot       `json:"track"`
	AddedAt  time.Time      `json:"addedAt"`
}

// Snapshot is the stored copy of a remote track, enough to render and
// re-resolve it without a search.
type Snapshot struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	DurationSec int    `json:"durationSeconds"`
	ArtURL      string `json:"art"`
	Ref         string `json:"ref"`
	Preview     string `json:"preview,omitempty"`
}

// NewEntry snapshots a remote track.
func NewEntry(t *track.Track, addedAt time.Time) Entry {
	snap := Snapshot{
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		DurationSec: t.DurationSec,
		ArtURL:      t.ArtURL,
	}
	if r, ok := t.Source.(track.Remote); ok {
		snap.Ref = r.Ref
		snap.Preview = r.Preview
	}
	return Entry{
		ID:       t.ID,
		Provider: t.Provider(),
		Track:    snap,
		AddedAt:  addedAt,
	}
}

// ToTrack rebuilds a Track from the entry. The result is flagged favorite.
func (e Entry) ToTrack() *track.Track {
	ref := e.Track.Ref
	if ref == "" {
		ref = e.ID
	}
	return &track.Track{
		ID:          e.ID,
		Title:       e.Track.Title,
		Artist:      e.Track.Artist,
		Album:       e.Track.Album,
		DurationSec: e.Track.DurationSec,
		ArtURL:      e.Track.ArtURL,
		IsFavorite:  true,
		Source:      track.Remote{Provider: e.Provider, Ref: ref, Preview: e.Track.Preview},
	}
}
