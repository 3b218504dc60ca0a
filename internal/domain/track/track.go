// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"math"
	"strings"
)

// Provider identifies where a track's audio comes from.
type Provider string

const (
	ProviderLocal   Provider = "local"
	ProviderYouTube Provider = "youtube"
	ProviderAudius  Provider = "audius"
	ProviderSpotify Provider = "spotify"
)

// ParseProvider parses a provider name.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderLocal:
		return ProviderLocal, nil
	case ProviderYouTube:
		return ProviderYouTube, nil
	case ProviderAudius:
		return ProviderAudius, nil
	case ProviderSpotify:
		return ProviderSpotify, nil
	default:
		return "", fmt.Errorf("unknown provider: %q", s)
	}
}

// Kind is the coarse source kind of a track.
type Kind int

const (
	KindLocal  Kind = iota // Audio file on this machine
	KindRemote             // Audio resolved through a MusicSource
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Source is the provider-specific payload of a track.
// It is implemented only by Local and Remote.
type Source interface {
	Kind() Kind
	isSource()
}

// Local is a track backed by a file path.
type Local struct {
	Path string
}

// Kind implements Source.
func (Local) Kind() Kind { return KindLocal }
func (Local) isSource()  {}

// Remote is a track whose stream locator is resolved lazily.
type Remote struct {
	Provider Provider
	Ref      string // Provider-side identifier (video ID, Audius track ID, ...)
	Preview  string // Direct preview URL when the provider hands one out (Spotify)
	Verified bool   // Uploader is verified (YouTube channels)
}

// Kind implements Source.
func (Remote) Kind() Kind { return KindRemote }
func (Remote) isSource()  {}

// Track represents a playable track.
// Identity fields never change after creation; only IsFavorite is mutated.
type Track struct {
	ID          string // Unique within a catalog snapshot
	Title       string
	Artist      string
	Album       string
	DurationSec int    // Duration in seconds (>= 0)
	ArtURL      string // Artwork reference
	IsFavorite  bool   // Authoritative for Local tracks only
	Source      Source
}

// Kind returns the source kind of the track.
func (t *Track) Kind() Kind {
	if t.Source == nil {
		return KindRemote
	}
	return t.Source.Kind()
}

// Provider returns the provider of the track.
func (t *Track) Provider() Provider {
	switch s := t.Source.(type) {
	case Local:
		return ProviderLocal
	case Remote:
		return s.Provider
	default:
		return ""
	}
}

// IsLocal reports whether the track is backed by a local file.
func (t *Track) IsLocal() bool {
	return t.Kind() == KindLocal
}

// Key returns a provider-qualified key, e.g. "youtube:dQw4w9WgXcQ".
func (t *Track) Key() string {
	return string(t.Provider()) + ":" + t.ID
}

// Validate checks the track invariants.
func (t *Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("track id is required")
	}
	if t.DurationSec < 0 {
		return fmt.Errorf("track %s: duration must be non-negative", t.ID)
	}
	switch s := t.Source.(type) {
	case Local:
		if s.Path == "" {
			return fmt.Errorf("track %s: local path is required", t.ID)
		}
	case Remote:
		if s.Provider == "" || s.Provider == ProviderLocal {
			return fmt.Errorf("track %s: remote provider is required", t.ID)
		}
	default:
		return fmt.Errorf("track %s: source is required", t.ID)
	}
	return nil
}

// Clone returns a shallow copy of the track.
func (t *Track) Clone() *Track {
	c := *t
	return &c
}

// Matches reports whether the query is a case-insensitive substring of the
// title, artist or album.
func (t *Track) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Artist), q) ||
		strings.Contains(strings.ToLower(t.Album), q)
}

// FormatTime renders seconds as m:ss. Unknown values render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
