// Package audius provides a client for the Audius public API.
package audius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

// DefaultBaseURL is the public Audius API host.
const DefaultBaseURL = "https://api.audius.co"

// Client is an Audius API client.
type Client struct {
	appName    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config represents Audius client configuration.
type Config struct {
	AppName        string
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// apiTrack is the track object returned by the Audius API.
type apiTrack struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Duration     int    `json:"duration"`
	Genre        string `json:"genre"`
	IsStreamable *bool  `json:"is_streamable"`
	Artwork      struct {
		Small  string `json:"150x150"`
		Medium string `json:"480x480"`
		Large  string `json:"1000x1000"`
	} `json:"artwork"`
	User struct {
		Name       string `json:"name"`
		Handle     string `json:"handle"`
		IsVerified bool   `json:"is_verified"`
	} `json:"user"`
}

// apiPlaylist is the playlist object returned by the Audius API.
type apiPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"playlist_name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Artwork     struct {
		Medium string `json:"480x480"`
	} `json:"artwork"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

type tracksResponse struct {
	Data []apiTrack `json:"data"`
}

type trackResponse struct {
	Data apiTrack `json:"data"`
}

type playlistsResponse struct {
	Data []apiPlaylist `json:"data"`
}

// New creates a new Audius client.
func New(cfg Config) (*Client, error) {
	if cfg.AppName == "" {
		return nil, errors.New("audius app name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	return &Client{
		appName:    cfg.AppName,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
	}, nil
}

// SearchTracks searches Audius for tracks.
// Reference: https://docs.audius.org/developers/api/search-tracks
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 30
	}

	params := url.Values{}
	params.Set("query", query)

	var response tracksResponse
	if err := c.get(ctx, "/v1/tracks/search", params, &response); err != nil {
		return nil, errors.Wrap(err, "failed to search tracks")
	}

	tracks := make([]*track.Track, 0, min(limit, len(response.Data)))
	for _, t := range response.Data {
		if len(tracks) >= limit {
			break
		}
		if t.IsStreamable != nil && !*t.IsStreamable {
			continue
		}
		tracks = append(tracks, convertTrack(t))
	}

	zlog.Debug().Msgf("audius search: query=%s, results=%d", query, len(tracks))
	return tracks, nil
}

// GetTrack retrieves a single track.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*track.Track, error) {
	if trackID == "" {
		return nil, errors.Mark(errors.New("track id is required"), track.ErrNotFound)
	}

	var response trackResponse
	if err := c.get(ctx, "/v1/tracks/"+url.PathEscape(trackID), nil, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to get track %s", trackID)
	}
	if response.Data.IsStreamable != nil && !*response.Data.IsStreamable {
		return nil, errors.Mark(errors.Newf("track %s is not streamable", trackID), track.ErrUnplayable)
	}
	return convertTrack(response.Data), nil
}

// StreamURL returns the direct stream URL of a track. The endpoint answers
// with a redirect to a content node.
func (c *Client) StreamURL(trackID string) string {
	params := url.Values{}
	params.Set("app_name", c.appName)
	return c.baseURL + "/v1/tracks/" + url.PathEscape(trackID) + "/stream?" + params.Encode()
}

// TrendingPlaylists retrieves trending playlists.
func (c *Client) TrendingPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	if limit <= 0 {
		limit = 10
	}

	var response playlistsResponse
	if err := c.get(ctx, "/v1/playlists/trending", nil, &response); err != nil {
		return nil, errors.Wrap(err, "failed to get trending playlists")
	}

	playlists := make([]playlist.Summary, 0, min(limit, len(response.Data)))
	for _, p := range response.Data {
		if len(playlists) >= limit {
			break
		}
		playlists = append(playlists, playlist.Summary{
			ID:          p.ID,
			Provider:    track.ProviderAudius,
			Name:        p.Name,
			Description: p.Description,
			ImageURL:    p.Artwork.Medium,
			Owner:       p.User.Name,
			TrackCount:  p.TrackCount,
		})
	}
	return playlists, nil
}

// PlaylistTracks retrieves the tracks of a playlist.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]*track.Track, error) {
	if playlistID == "" {
		return nil, errors.Mark(errors.New("playlist id is required"), track.ErrNotFound)
	}

	var response tracksResponse
	if err := c.get(ctx, "/v1/playlists/"+url.PathEscape(playlistID)+"/tracks", nil, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to get playlist %s tracks", playlistID)
	}

	tracks := make([]*track.Track, 0, len(response.Data))
	for _, t := range response.Data {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// get performs a paced GET request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter wait failed")
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("app_name", c.appName)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to send request"), track.ErrNetwork)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to read response body"), track.ErrNetwork)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Mark(errors.Newf("audius: %s not found", path), track.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.Mark(errors.New("audius: rate limited"), track.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return errors.Mark(errors.Newf("audius API error %d: %s", resp.StatusCode, truncate(body, 200)), track.ErrUpstream)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to parse response"), track.ErrUpstream)
	}
	return nil
}

func convertTrack(t apiTrack) *track.Track {
	art := t.Artwork.Medium
	if art == "" {
		art = t.Artwork.Small
	}
	artist := t.User.Name
	if artist == "" {
		artist = t.User.Handle
	}
	album := t.Genre
	if album == "" {
		album = "Audius"
	}

	return &track.Track{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      artist,
		Album:       album,
		DurationSec: t.Duration,
		ArtURL:      art,
		Source: track.Remote{
			Provider: track.ProviderAudius,
			Ref:      t.ID,
			Verified: t.User.IsVerified,
		},
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return fmt.Sprintf("%s...", b[:n])
}
