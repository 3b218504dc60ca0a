// Package libraryv1 defines the messages of the music library RPC service.
// Messages are plain structs carried by a JSON codec.
package libraryv1

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

// Track is a remote track on the wire.
type Track struct {
	ID              string `json:"id"`
	Provider        string `json:"provider"`
	Ref             string `json:"ref,omitempty"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	DurationSeconds int    `json:"durationSeconds"`
	Art             string `json:"art,omitempty"`
	Preview         string `json:"preview,omitempty"`
	Verified        bool   `json:"verified,omitempty"`
}

// Playlist is a featured playlist summary on the wire.
type Playlist struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Owner       string `json:"owner,omitempty"`
	TrackCount  int    `json:"trackCount"`
}

type SearchRequest struct {
	Query string `json:"query"`
}

type SearchResponse struct {
	Tracks []*Track `json:"tracks"`
}

type ResolveStreamRequest struct {
	Track *Track `json:"track"`
}

type ResolveStreamResponse struct {
	// Locator is an absolute URL or a path relative to the library server.
	Locator string `json:"locator"`
}

type FeaturedPlaylistsRequest struct {
	Limit int `json:"limit"`
}

type FeaturedPlaylistsResponse struct {
	Playlists []*Playlist `json:"playlists"`
}

type PlaylistTracksRequest struct {
	Provider   string `json:"provider"`
	PlaylistID string `json:"playlistId"`
}

type PlaylistTracksResponse struct {
	Tracks []*Track `json:"tracks"`
}

type ProbeRequest struct {
	VideoID string `json:"videoId"`
}

type ProbeResponse struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	LengthSeconds int    `json:"lengthSeconds"`
	Available     bool   `json:"available"`
	Error         string `json:"error,omitempty"`
}

// FromTrack converts a domain track. Local tracks are not representable.
func FromTrack(t *track.Track) *Track {
	out := &Track{
		ID:              t.ID,
		Provider:        string(t.Provider()),
		Title:           t.Title,
		Artist:          t.Artist,
		Album:           t.Album,
		DurationSeconds: t.DurationSec,
		Art:             t.ArtURL,
	}
	if r, ok := t.Source.(track.Remote); ok {
		out.Ref = r.Ref
		out.Preview = r.Preview
		out.Verified = r.Verified
	}
	return out
}

// FromTracks converts a slice of domain tracks.
func FromTracks(tracks []*track.Track) []*Track {
	out := make([]*Track, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, FromTrack(t))
	}
	return out
}

// ToDomain converts a wire track to a remote domain track.
func (t *Track) ToDomain() (*track.Track, error) {
	if t == nil {
		return nil, errors.New("track is required")
	}
	provider, err := track.ParseProvider(t.Provider)
	if err != nil {
		return nil, err
	}
	if provider == track.ProviderLocal {
		return nil, errors.Newf("track %s: local tracks are not served remotely", t.ID)
	}
	ref := t.Ref
	if ref == "" {
		ref = t.ID
	}

	out := &track.Track{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		DurationSec: t.DurationSeconds,
		ArtURL:      t.Art,
		Source: track.Remote{
			Provider: provider,
			Ref:      ref,
			Preview:  t.Preview,
			Verified: t.Verified,
		},
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ToDomainTracks converts wire tracks, skipping entries that do not validate.
func ToDomainTracks(tracks []*Track) []*track.Track {
	out := make([]*track.Track, 0, len(tracks))
	for _, t := range tracks {
		dt, err := t.ToDomain()
		if err != nil {
			continue
		}
		out = append(out, dt)
	}
	return out
}

// FromSummary converts a playlist summary.
func FromSummary(s playlist.Summary) *Playlist {
	return &Playlist{
		ID:          s.ID,
		Provider:    string(s.Provider),
		Name:        s.Name,
		Description: s.Description,
		Image:       s.ImageURL,
		Owner:       s.Owner,
		TrackCount:  s.TrackCount,
	}
}

// ToSummary converts a wire playlist to a summary.
func (p *Playlist) ToSummary() playlist.Summary {
	return playlist.Summary{
		ID:          p.ID,
		Provider:    track.Provider(p.Provider),
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.Image,
		Owner:       p.Owner,
		TrackCount:  p.TrackCount,
	}
}
