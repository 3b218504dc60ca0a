package source

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/youtube"
)

// YouTubeClient defines the YouTube operations needed by the provider.
type YouTubeClient interface {
	Search(ctx context.Context, query string, limit int) ([]*track.Track, error)
	AudioStream(ctx context.Context, videoID string) (*youtube.Stream, error)
}

type YouTubeProviderConfig struct {
	StreamPath string `yaml:"stream_path" mapstructure:"stream_path" default:"/stream" validate:"startswith=/"`
}

// YouTubeProvider searches YouTube. Streams are relayed through the library
// server, so locators point at its stream endpoint.
type YouTubeProvider struct {
	client YouTubeClient
	config *YouTubeProviderConfig
}

// NewYouTubeProvider creates a new YouTubeProvider.
func NewYouTubeProvider(client YouTubeClient, settings map[string]any) (*YouTubeProvider, error) {
	if client == nil {
		return nil, errors.New("youtube client is required")
	}
	var config YouTubeProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("youtube provider config: %+v", config)
	return &YouTubeProvider{client: client, config: &config}, nil
}

func (p *YouTubeProvider) Name() string {
	return "youtube"
}

func (p *YouTubeProvider) Kind() track.Provider {
	return track.ProviderYouTube
}

func (p *YouTubeProvider) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	return p.client.Search(ctx, query, limit)
}

// Resolve checks that the video has an audio format, warming the info cache
// the relay reads from, and returns the relay locator.
func (p *YouTubeProvider) Resolve(ctx context.Context, t *track.Track) (string, error) {
	s, err := p.client.AudioStream(ctx, ref(t))
	if err != nil {
		return "", err
	}
	return p.config.StreamPath + "?id=" + url.QueryEscape(s.VideoID), nil
}
