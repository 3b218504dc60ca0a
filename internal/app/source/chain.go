package source

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/golang-lru/v2/expirable"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/app/filter"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

// ErrNoProvider is returned when no configured provider serves a track.
var ErrNoProvider = errors.New("no provider for track")

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Options controls how the chain queries its providers.
type Options struct {
	FetchCount  int           // Results requested from each provider
	ResultLimit int           // Results returned after filtering
	Timeout     time.Duration // Per-provider search timeout
	CacheSize   int
	CacheTTL    time.Duration
}

// Chain fans a search out to all providers, filters the merged results and
// routes stream resolution to the provider that produced a track.
type Chain struct {
	providers []ProviderWithMetadata
	filters   *filter.Chain
	opts      Options
	results   *expirable.LRU[string, []*track.Track]
}

// NewChain creates a new provider chain. A nil filter chain keeps every result.
func NewChain(providers []ProviderWithMetadata, filters *filter.Chain, opts Options) *Chain {
	if opts.FetchCount <= 0 {
		opts.FetchCount = 30
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = 15
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if filters == nil {
		filters = filter.NewChain()
	}

	return &Chain{
		providers: providers,
		filters:   filters,
		opts:      opts,
		results:   expirable.NewLRU[string, []*track.Track](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Search queries every provider in order and returns the filtered results.
// Failing providers are skipped; the search fails only when all of them do.
func (c *Chain) Search(ctx context.Context, query string) ([]*track.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if len(c.providers) == 0 {
		return nil, errors.Mark(errors.New("no providers configured"), track.ErrUpstream)
	}

	key := strings.ToLower(query)
	if cached, ok := c.results.Get(key); ok {
		zlog.Debug().Msgf("using cached search results: query=%s count=%d", query, len(cached))
		return cloneTracks(cached), nil
	}

	var all []*track.Track
	var lastErr error
	failed := 0
	for i, pm := range c.providers {
		zlog.Debug().Msgf("searching provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		found, err := c.searchOne(ctx, pm.Provider, query)
		if err != nil {
			zlog.Warn().Msgf("provider search failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			failed++
			continue
		}

		zlog.Debug().Msgf("provider returned results: provider=%s count=%d", pm.DisplayName, len(found))
		all = append(all, found...)
	}

	if failed == len(c.providers) {
		return nil, errors.Wrap(lastErr, "all providers failed")
	}

	results := c.filters.Apply(ctx, all, c.opts.ResultLimit)
	zlog.Info().Msgf("search finished: query=%s fetched=%d kept=%d", query, len(all), len(results))

	c.results.Add(key, results)
	return cloneTracks(results), nil
}

func (c *Chain) searchOne(ctx context.Context, p Provider, query string) ([]*track.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	return p.Search(ctx, query, c.opts.FetchCount)
}

// ResolveStream returns the stream locator of a remote track.
func (c *Chain) ResolveStream(ctx context.Context, t *track.Track) (string, error) {
	if t == nil {
		return "", errors.Mark(errors.New("track is required"), track.ErrNotFound)
	}
	p, err := c.providerFor(t.Provider())
	if err != nil {
		return "", err
	}

	locator, err := p.Resolve(ctx, t)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", t.Key())
	}
	zlog.Debug().Msgf("resolved stream: track=%s locator=%s", t.Key(), locator)
	return locator, nil
}

// FeaturedPlaylists lists playlists from every provider that publishes them.
func (c *Chain) FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	var all []playlist.Summary
	var lastErr error
	served := 0
	for _, pm := range c.providers {
		pp, ok := pm.Provider.(PlaylistProvider)
		if !ok {
			continue
		}
		served++
		lists, err := pp.FeaturedPlaylists(ctx, limit)
		if err != nil {
			zlog.Warn().Msgf("featured playlists failed: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			continue
		}
		all = append(all, lists...)
	}

	if served == 0 {
		return nil, nil
	}
	if len(all) == 0 && lastErr != nil {
		return nil, errors.Wrap(lastErr, "failed to list featured playlists")
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// PlaylistTracks returns the tracks of a playlist published by provider.
func (c *Chain) PlaylistTracks(ctx context.Context, provider track.Provider, playlistID string) ([]*track.Track, error) {
	p, err := c.providerFor(provider)
	if err != nil {
		return nil, err
	}
	pp, ok := p.(PlaylistProvider)
	if !ok {
		return nil, errors.Mark(errors.Newf("provider %s has no playlists", provider), track.ErrNotFound)
	}
	return pp.PlaylistTracks(ctx, playlistID)
}

// CacheLen returns the number of cached search results.
func (c *Chain) CacheLen() int {
	return c.results.Len()
}

// Providers returns the configured providers.
func (c *Chain) Providers() []ProviderWithMetadata {
	return c.providers
}

func (c *Chain) providerFor(kind track.Provider) (Provider, error) {
	for _, pm := range c.providers {
		if pm.Provider.Kind() == kind {
			return pm.Provider, nil
		}
	}
	return nil, errors.Mark(errors.Wrapf(ErrNoProvider, "provider %q", kind), track.ErrNotFound)
}

// cloneTracks copies cached tracks so callers can mutate them.
func cloneTracks(tracks []*track.Track) []*track.Track {
	out := make([]*track.Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}
	return out
}
