package source

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/syncin/internal/app/filter"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/config"
	"github.com/osa030/syncin/internal/infra/youtube"
)

type fakeProvider struct {
	kind     track.Provider
	results  []*track.Track
	err      error
	locator  string
	calls    atomic.Int32
	gotLimit int
	lists    []playlist.Summary
}

func (p *fakeProvider) Name() string         { return string(p.kind) }
func (p *fakeProvider) Kind() track.Provider { return p.kind }

func (p *fakeProvider) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	p.calls.Add(1)
	p.gotLimit = limit
	return p.results, p.err
}

func (p *fakeProvider) Resolve(ctx context.Context, t *track.Track) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.locator + ref(t), nil
}

type fakePlaylistProvider struct {
	fakeProvider
}

func (p *fakePlaylistProvider) FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	return p.lists, nil
}

func (p *fakePlaylistProvider) PlaylistTracks(ctx context.Context, playlistID string) ([]*track.Track, error) {
	return p.results, nil
}

func remote(provider track.Provider, id, title string, seconds int) *track.Track {
	return &track.Track{
		ID:          id,
		Title:       title,
		Artist:      "artist",
		DurationSec: seconds,
		Source:      track.Remote{Provider: provider, Ref: id, Verified: true},
	}
}

func durationFilter(t *testing.T) *filter.Chain {
	t.Helper()
	chain, err := filter.NewChainFromConfig([]config.FilterConfig{
		{Type: "duration_limit_filter", Enabled: true},
	})
	require.NoError(t, err)
	return chain
}

func TestChain_SearchMergesAndFilters(t *testing.T) {
	yt := &fakeProvider{kind: track.ProviderYouTube, results: []*track.Track{
		remote(track.ProviderYouTube, "yt-short", "Teaser", 30),
		remote(track.ProviderYouTube, "yt-ok", "Song", 200),
	}}
	au := &fakeProvider{kind: track.ProviderAudius, results: []*track.Track{
		remote(track.ProviderAudius, "au-ok", "Other Song", 240),
		remote(track.ProviderAudius, "au-long", "Mix", 3600),
	}}

	chain := NewChain([]ProviderWithMetadata{
		{Provider: yt, DisplayName: "YouTube"},
		{Provider: au, DisplayName: "Audius"},
	}, durationFilter(t), Options{FetchCount: 30, ResultLimit: 15})

	results, err := chain.Search(context.Background(), "song")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "yt-ok", results[0].ID)
	assert.Equal(t, "au-ok", results[1].ID)
	assert.Equal(t, 30, yt.gotLimit)
}

func TestChain_SearchResultLimit(t *testing.T) {
	var tracks []*track.Track
	for _, id := range []string{"a", "b", "c", "d"} {
		tracks = append(tracks, remote(track.ProviderYouTube, id, "Song "+id, 200))
	}
	yt := &fakeProvider{kind: track.ProviderYouTube, results: tracks}

	chain := NewChain([]ProviderWithMetadata{{Provider: yt}}, nil, Options{ResultLimit: 3})

	results, err := chain.Search(context.Background(), "song")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestChain_SearchSkipsFailingProvider(t *testing.T) {
	broken := &fakeProvider{kind: track.ProviderAudius, err: errors.Mark(errors.New("boom"), track.ErrUpstream)}
	yt := &fakeProvider{kind: track.ProviderYouTube, results: []*track.Track{
		remote(track.ProviderYouTube, "yt-ok", "Song", 200),
	}}

	chain := NewChain([]ProviderWithMetadata{
		{Provider: broken, DisplayName: "Audius"},
		{Provider: yt, DisplayName: "YouTube"},
	}, nil, Options{})

	results, err := chain.Search(context.Background(), "song")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChain_SearchAllFail(t *testing.T) {
	broken := &fakeProvider{kind: track.ProviderYouTube, err: errors.Mark(errors.New("offline"), track.ErrNetwork)}
	chain := NewChain([]ProviderWithMetadata{{Provider: broken}}, nil, Options{})

	_, err := chain.Search(context.Background(), "song")
	require.Error(t, err)
	assert.True(t, errors.Is(err, track.ErrNetwork))

	_, err = chain.Search(context.Background(), "  ")
	assert.Error(t, err)

	_, err = NewChain(nil, nil, Options{}).Search(context.Background(), "song")
	assert.True(t, errors.Is(err, track.ErrUpstream))
}

func TestChain_SearchCache(t *testing.T) {
	yt := &fakeProvider{kind: track.ProviderYouTube, results: []*track.Track{
		remote(track.ProviderYouTube, "yt-ok", "Song", 200),
	}}
	chain := NewChain([]ProviderWithMetadata{{Provider: yt}}, nil, Options{CacheTTL: time.Minute})

	first, err := chain.Search(context.Background(), "Song")
	require.NoError(t, err)
	first[0].IsFavorite = true

	second, err := chain.Search(context.Background(), " song ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), yt.calls.Load())
	assert.False(t, second[0].IsFavorite, "cached results are copied")
	assert.Equal(t, 1, chain.CacheLen())
}

func TestChain_ResolveStream(t *testing.T) {
	yt := &fakeProvider{kind: track.ProviderYouTube, locator: "/stream?id="}
	chain := NewChain([]ProviderWithMetadata{{Provider: yt}}, nil, Options{})

	locator, err := chain.ResolveStream(context.Background(), remote(track.ProviderYouTube, "dQw4w9WgXcQ", "Song", 200))
	require.NoError(t, err)
	assert.Equal(t, "/stream?id=dQw4w9WgXcQ", locator)

	_, err = chain.ResolveStream(context.Background(), remote(track.ProviderSpotify, "x", "Song", 30))
	require.Error(t, err)
	assert.True(t, errors.Is(err, track.ErrNotFound))
	assert.True(t, errors.Is(err, ErrNoProvider))

	yt.err = errors.Mark(errors.New("no audio"), track.ErrUnplayable)
	_, err = chain.ResolveStream(context.Background(), remote(track.ProviderYouTube, "dQw4w9WgXcQ", "Song", 200))
	assert.True(t, errors.Is(err, track.ErrUnplayable))
}

func TestChain_Playlists(t *testing.T) {
	au := &fakePlaylistProvider{fakeProvider: fakeProvider{
		kind:    track.ProviderAudius,
		results: []*track.Track{remote(track.ProviderAudius, "t1", "One", 120)},
		lists: []playlist.Summary{
			{ID: "p1", Name: "Chill", Provider: track.ProviderAudius},
			{ID: "p2", Name: "Focus", Provider: track.ProviderAudius},
		},
	}}
	yt := &fakeProvider{kind: track.ProviderYouTube}
	chain := NewChain([]ProviderWithMetadata{{Provider: yt}, {Provider: au}}, nil, Options{})

	lists, err := chain.FeaturedPlaylists(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Chill", lists[0].Name)

	tracks, err := chain.PlaylistTracks(context.Background(), track.ProviderAudius, "p1")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)

	_, err = chain.PlaylistTracks(context.Background(), track.ProviderYouTube, "p1")
	assert.True(t, errors.Is(err, track.ErrNotFound))
}

type fakeYouTube struct{}

func (fakeYouTube) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	return nil, nil
}

func (fakeYouTube) AudioStream(ctx context.Context, videoID string) (*youtube.Stream, error) {
	return &youtube.Stream{VideoID: videoID, MimeType: "audio/webm"}, nil
}

func TestYouTubeProvider_Resolve(t *testing.T) {
	p, err := NewYouTubeProvider(fakeYouTube{}, nil)
	require.NoError(t, err)

	locator, err := p.Resolve(context.Background(), remote(track.ProviderYouTube, "dQw4w9WgXcQ", "Song", 200))
	require.NoError(t, err)
	assert.Equal(t, "/stream?id=dQw4w9WgXcQ", locator)

	_, err = NewYouTubeProvider(fakeYouTube{}, map[string]any{"stream_path": "stream"})
	assert.Error(t, err)
}

type fakeSpotify struct {
	tracks []*track.Track
}

func (f fakeSpotify) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	return f.tracks, nil
}

func (f fakeSpotify) PreviewURL(ctx context.Context, trackID string) (string, error) {
	return "", errors.Mark(errors.New("no preview"), track.ErrUnplayable)
}

func TestSpotifyProvider(t *testing.T) {
	withPreview := &track.Track{ID: "a", Source: track.Remote{Provider: track.ProviderSpotify, Ref: "a", Preview: "https://p/a"}}
	without := &track.Track{ID: "b", Source: track.Remote{Provider: track.ProviderSpotify, Ref: "b"}}

	p, err := NewSpotifyProvider(fakeSpotify{tracks: []*track.Track{withPreview, without}}, nil)
	require.NoError(t, err)

	got, err := p.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	locator, err := p.Resolve(context.Background(), withPreview)
	require.NoError(t, err)
	assert.Equal(t, "https://p/a", locator)

	_, err = p.Resolve(context.Background(), without)
	assert.True(t, errors.Is(err, track.ErrUnplayable))

	keep, err := NewSpotifyProvider(fakeSpotify{tracks: []*track.Track{withPreview, without}},
		map[string]any{"keep_without_preview": "true"})
	require.NoError(t, err)
	got, err = keep.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestNewChainFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Providers = append(cfg.Providers, config.ProviderConfig{
		Type:        "audius",
		DisplayName: "Audius",
		Settings:    map[string]any{"app_name": "syncin-test"},
	})

	chain, err := NewChainFromConfig(context.Background(), cfg, fakeYouTube{})
	require.NoError(t, err)
	require.Len(t, chain.Providers(), 2)
	assert.Equal(t, "youtube", chain.Providers()[0].Provider.Name())
	assert.Equal(t, "Audius", chain.Providers()[1].DisplayName)

	cfg.Providers = append(cfg.Providers, config.ProviderConfig{Type: "soundcloud", DisplayName: "SC"})
	_, err = NewChainFromConfig(context.Background(), cfg, fakeYouTube{})
	assert.Error(t, err)

	cfg.Providers = nil
	_, err = NewChainFromConfig(context.Background(), cfg, fakeYouTube{})
	assert.Error(t, err)
}
