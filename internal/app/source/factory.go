package source

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/app/filter"
	"github.com/osa030/syncin/internal/infra/config"
	"github.com/osa030/syncin/internal/infra/spotify"
)

// Limits carries the upstream pacing shared by provider clients.
type Limits struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// NewChainFromConfig creates a provider chain from configuration. The
// YouTube client is shared with the stream relay, so it is passed in.
func NewChainFromConfig(ctx context.Context, cfg *config.Config, yt YouTubeClient) (*Chain, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}

	limits := Limits{
		Timeout:        cfg.SearchTimeout(),
		RequestsPerSec: cfg.Search.RequestsPerSec,
		Burst:          cfg.Search.Burst,
	}

	var providers []ProviderWithMetadata
	for i, pcfg := range cfg.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating provider: index=%d type=%s settings=%+v", i+1, pcfg.Type, pcfg.Settings)
		switch pcfg.Type {
		case "youtube":
			provider, err = NewYouTubeProvider(yt, pcfg.Settings)

		case "audius":
			provider, err = NewAudiusProvider(pcfg.Settings, limits)

		case "spotify":
			var client *spotify.Client
			client, err = spotify.New(ctx, spotify.Config{
				ClientID:     cfg.Spotify.ClientID,
				ClientSecret: cfg.Spotify.ClientSecret,
				Market:       cfg.Spotify.Market,
			})
			if err == nil {
				provider, err = NewSpotifyProvider(client, pcfg.Settings)
			}

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	filters, err := filter.NewChainFromConfig(cfg.Filters)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter chain")
	}

	return NewChain(providers, filters, Options{
		FetchCount:  cfg.Search.FetchCount,
		ResultLimit: cfg.Search.ResultLimit,
		Timeout:     cfg.SearchTimeout(),
		CacheSize:   cfg.Cache.Size,
		CacheTTL:    cfg.CacheTTL(),
	}), nil
}
