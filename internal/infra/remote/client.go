// Package remote provides the player's connection to the library server.
package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	apiconnect "github.com/osa030/syncin/internal/api/connect"
	libraryv1 "github.com/osa030/syncin/internal/api/libraryv1"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

// Config represents library client configuration.
type Config struct {
	ServerURL string
	APIToken  string
	Timeout   time.Duration
}

// Client is a library server client. It implements the player's MusicSource.
type Client struct {
	base *url.URL
	rpc  *libraryv1.LibraryServiceClient
}

// ProbeResult reports whether a video can be streamed by the server.
type ProbeResult struct {
	VideoID     string
	Title       string
	Author      string
	DurationSec int
	Available   bool
	Error       string
}

// New creates a new Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.ServerURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server url %q", cfg.ServerURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf("invalid server url %q: scheme must be http or https", cfg.ServerURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		base: base,
		rpc: libraryv1.NewLibraryServiceClient(httpClient, base.String(),
			connect.WithInterceptors(apiconnect.NewClientTokenInterceptor(cfg.APIToken))),
	}, nil
}

// ServerURL returns the library server base URL.
func (c *Client) ServerURL() string {
	return c.base.String()
}

// Search searches the configured providers.
func (c *Client) Search(ctx context.Context, query string) ([]*track.Track, error) {
	resp, err := c.rpc.Search(ctx, connect.NewRequest(&libraryv1.SearchRequest{Query: query}))
	if err != nil {
		return nil, libraryv1.FromConnectError(errors.Wrapf(err, "search %q failed", query))
	}
	return libraryv1.ToDomainTracks(resp.Msg.Tracks), nil
}

// ResolveStream resolves a remote track to an absolute stream URL.
func (c *Client) ResolveStream(ctx context.Context, t *track.Track) (string, error) {
	if t.IsLocal() {
		return "", errors.Newf("track %s is local", t.ID)
	}

	resp, err := c.rpc.ResolveStream(ctx, connect.NewRequest(&libraryv1.ResolveStreamRequest{
		Track: libraryv1.FromTrack(t),
	}))
	if err != nil {
		return "", libraryv1.FromConnectError(errors.Wrapf(err, "resolve %s failed", t.Key()))
	}

	locator, err := c.absolute(resp.Msg.Locator)
	if err != nil {
		return "", errors.Mark(err, track.ErrUpstream)
	}
	zlog.Debug().Msgf("resolved stream: track=%s, locator=%s", t.Key(), locator)
	return locator, nil
}

// FeaturedPlaylists lists featured playlists.
func (c *Client) FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	resp, err := c.rpc.FeaturedPlaylists(ctx, connect.NewRequest(&libraryv1.FeaturedPlaylistsRequest{Limit: limit}))
	if err != nil {
		return nil, libraryv1.FromConnectError(errors.Wrap(err, "featured playlists failed"))
	}

	out := make([]playlist.Summary, 0, len(resp.Msg.Playlists))
	for _, p := range resp.Msg.Playlists {
		out = append(out, p.ToSummary())
	}
	return out, nil
}

// PlaylistTracks lists the tracks of a featured playlist.
func (c *Client) PlaylistTracks(ctx context.Context, s playlist.Summary) (*playlist.Playlist, error) {
	resp, err := c.rpc.PlaylistTracks(ctx, connect.NewRequest(&libraryv1.PlaylistTracksRequest{
		Provider:   string(s.Provider),
		PlaylistID: s.ID,
	}))
	if err != nil {
		return nil, libraryv1.FromConnectError(errors.Wrapf(err, "playlist %s failed", s.ID))
	}
	return &playlist.Playlist{Summary: s, Tracks: libraryv1.ToDomainTracks(resp.Msg.Tracks)}, nil
}

// Probe asks the server whether a YouTube video can be streamed.
func (c *Client) Probe(ctx context.Context, videoID string) (ProbeResult, error) {
	resp, err := c.rpc.Probe(ctx, connect.NewRequest(&libraryv1.ProbeRequest{VideoID: videoID}))
	if err != nil {
		return ProbeResult{}, libraryv1.FromConnectError(errors.Wrapf(err, "probe %s failed", videoID))
	}
	return ProbeResult{
		VideoID:     resp.Msg.VideoID,
		Title:       resp.Msg.Title,
		Author:      resp.Msg.Author,
		DurationSec: resp.Msg.LengthSeconds,
		Available:   resp.Msg.Available,
		Error:       resp.Msg.Error,
	}, nil
}

// absolute resolves a server-relative locator against the server URL.
func (c *Client) absolute(locator string) (string, error) {
	if locator == "" {
		return "", errors.New("server returned an empty locator")
	}
	u, err := url.Parse(locator)
	if err != nil {
		return "", errors.Wrapf(err, "invalid locator %q", locator)
	}
	return c.base.ResolveReference(u).String(), nil
}
