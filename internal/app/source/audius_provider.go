package source

import (
	"context"

	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/audius"
)

// AudiusClient defines the Audius operations needed by the provider.
type AudiusClient interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]*track.Track, error)
	GetTrack(ctx context.Context, trackID string) (*track.Track, error)
	StreamURL(trackID string) string
	TrendingPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]*track.Track, error)
}

type AudiusProviderConfig struct {
	AppName string `yaml:"app_name" mapstructure:"app_name" default:"syncin" validate:"required"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
}

// AudiusProvider searches Audius. Stream locators are direct Audius URLs.
type AudiusProvider struct {
	client AudiusClient
}

// NewAudiusProvider creates an AudiusProvider with its own client built
// from settings.
func NewAudiusProvider(settings map[string]any, limits Limits) (*AudiusProvider, error) {
	var config AudiusProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	client, err := audius.New(audius.Config{
		AppName:        config.AppName,
		BaseURL:        config.BaseURL,
		Timeout:        limits.Timeout,
		RequestsPerSec: limits.RequestsPerSec,
		Burst:          limits.Burst,
	})
	if err != nil {
		return nil, err
	}
	return NewAudiusProviderWithClient(client), nil
}

// NewAudiusProviderWithClient creates an AudiusProvider over an existing client.
func NewAudiusProviderWithClient(client AudiusClient) *AudiusProvider {
	return &AudiusProvider{client: client}
}

func (p *AudiusProvider) Name() string {
	return "audius"
}

func (p *AudiusProvider) Kind() track.Provider {
	return track.ProviderAudius
}

func (p *AudiusProvider) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	return p.client.SearchTracks(ctx, query, limit)
}

// Resolve confirms the track is still streamable and returns its stream URL.
func (p *AudiusProvider) Resolve(ctx context.Context, t *track.Track) (string, error) {
	got, err := p.client.GetTrack(ctx, ref(t))
	if err != nil {
		return "", err
	}
	return p.client.StreamURL(ref(got)), nil
}

func (p *AudiusProvider) FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	return p.client.TrendingPlaylists(ctx, limit)
}

func (p *AudiusProvider) PlaylistTracks(ctx context.Context, playlistID string) ([]*track.Track, error) {
	return p.client.PlaylistTracks(ctx, playlistID)
}
