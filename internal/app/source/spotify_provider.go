package source

import (
	"context"

	"github.com/osa030/syncin/internal/domain/track"
)

// SpotifyClient defines the Spotify operations needed by the provider.
type SpotifyClient interface {
	Search(ctx context.Context, query string, limit int) ([]*track.Track, error)
	PreviewURL(ctx context.Context, trackID string) (string, error)
}

type SpotifyProviderConfig struct {
	// Keep results that carry no preview clip
	KeepWithoutPreview bool `yaml:"keep_without_preview" mapstructure:"keep_without_preview"`
}

// SpotifyProvider searches Spotify. Only 30 second previews are playable.
type SpotifyProvider struct {
	client SpotifyClient
	config *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(client SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	var config SpotifyProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &SpotifyProvider{client: client, config: &config}, nil
}

func (p *SpotifyProvider) Name() string {
	return "spotify"
}

func (p *SpotifyProvider) Kind() track.Provider {
	return track.ProviderSpotify
}

func (p *SpotifyProvider) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	tracks, err := p.client.Search(ctx, query, limit)
	if err != nil || p.config.KeepWithoutPreview {
		return tracks, err
	}

	playable := tracks[:0]
	for _, t := range tracks {
		if r, ok := t.Source.(track.Remote); ok && r.Preview != "" {
			playable = append(playable, t)
		}
	}
	return playable, nil
}

// Resolve returns the preview URL carried by the track, looking it up when
// the track was rebuilt without one.
func (p *SpotifyProvider) Resolve(ctx context.Context, t *track.Track) (string, error) {
	if r, ok := t.Source.(track.Remote); ok && r.Preview != "" {
		return r.Preview, nil
	}
	return p.client.PreviewURL(ctx, ref(t))
}
