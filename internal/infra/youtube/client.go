// Package youtube provides YouTube search, audio format resolution and
// stream access.
package youtube

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/golang-lru/v2/expirable"
	kkdai "github.com/kkdai/youtube/v2"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/syncin/internal/domain/track"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config represents YouTube client configuration.
type Config struct {
	CacheSize      int
	CacheTTL       time.Duration
	RequestsPerSec float64
	Burst          int
	Timeout        time.Duration
}

// Client is a YouTube client.
type Client struct {
	yt         *kkdai.Client
	httpClient *http.Client
	// Streaming must not be cut off by a total request timeout
	streamClient *http.Client
	searchURL    string
	limiter      *rate.Limiter
	info         *expirable.LRU[string, *kkdai.Video]
}

// Stream describes the selected audio-only format of a video.
type Stream struct {
	VideoID       string
	URL           string
	MimeType      string
	ContentLength int64
	Bitrate       int
}

// ProbeResult reports whether a video can be fetched.
type ProbeResult struct {
	VideoID     string
	Title       string
	Author      string
	DurationSec int
	Available   bool
	Error       string
}

// New creates a new YouTube client.
func New(cfg Config) *Client {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		yt:           &kkdai.Client{HTTPClient: httpClient},
		httpClient:   httpClient,
		streamClient: &http.Client{Transport: &http.Transport{DisableCompression: true}},
		searchURL:    defaultSearchURL,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		info:         expirable.NewLRU[string, *kkdai.Video](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

// ValidateID normalizes a video ID or URL to a bare video ID.
func ValidateID(input string) (string, error) {
	id, err := kkdai.ExtractVideoID(input)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "invalid video id %q", input), track.ErrNotFound)
	}
	return id, nil
}

// CacheLen returns the number of cached video info entries.
func (c *Client) CacheLen() int {
	return c.info.Len()
}

// Video returns video metadata, served from the info cache when fresh.
func (c *Client) Video(ctx context.Context, videoID string) (*kkdai.Video, error) {
	id, err := ValidateID(videoID)
	if err != nil {
		return nil, err
	}

	if v, ok := c.info.Get(id); ok {
		zlog.Debug().Msgf("using cached info: video_id=%s", id)
		return v, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait failed")
	}

	zlog.Debug().Msgf("fetching fresh info: video_id=%s", id)
	v, err := c.yt.GetVideoContext(ctx, id)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "failed to get video %s", id))
	}

	c.info.Add(id, v)
	zlog.Info().Msgf("got video info: video_id=%s, title=%s", id, v.Title)
	return v, nil
}

// AudioStream selects the highest bitrate audio-only format of a video and
// resolves its URL.
func (c *Client) AudioStream(ctx context.Context, videoID string) (*Stream, error) {
	v, err := c.Video(ctx, videoID)
	if err != nil {
		return nil, err
	}

	format := bestAudio(v.Formats)
	if format == nil {
		return nil, errors.Mark(errors.Newf("no audio format for video %s", v.ID), track.ErrUnplayable)
	}

	url, err := c.yt.GetStreamURLContext(ctx, v, format)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "failed to resolve stream url for video %s", v.ID))
	}

	zlog.Debug().Msgf("selected audio format: video_id=%s, itag=%d, mime=%s, bitrate=%d",
		v.ID, format.ItagNo, format.MimeType, format.Bitrate)

	return &Stream{
		VideoID:       v.ID,
		URL:           url,
		MimeType:      format.MimeType,
		ContentLength: format.ContentLength,
		Bitrate:       format.Bitrate,
	}, nil
}

// Open requests the stream bytes. A non-empty rangeHeader is passed through
// to the upstream unchanged.
func (c *Client) Open(ctx context.Context, s *Stream, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create stream request")
	}
	req.Header.Set("User-Agent", userAgent)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to open stream"), track.ErrNetwork)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, classify(errors.Wrapf(kkdai.ErrUnexpectedStatusCode(resp.StatusCode),
			"stream request for video %s failed", s.VideoID))
	}
	return resp, nil
}

// Probe fetches metadata and reports availability. Failures are reported in
// the result, not as an error.
func (c *Client) Probe(ctx context.Context, videoID string) ProbeResult {
	v, err := c.Video(ctx, videoID)
	if err != nil {
		return ProbeResult{VideoID: videoID, Available: false, Error: err.Error()}
	}
	return ProbeResult{
		VideoID:     v.ID,
		Title:       v.Title,
		Author:      v.Author,
		DurationSec: int(v.Duration.Seconds()),
		Available:   true,
	}
}

// bestAudio returns the audio-only format with the highest bitrate.
func bestAudio(formats kkdai.FormatList) *kkdai.Format {
	audio := formats.Type("audio").WithAudioChannels()
	var best *kkdai.Format
	for i := range audio {
		if best == nil || audio[i].Bitrate > best.Bitrate {
			best = &audio[i]
		}
	}
	return best
}

// StatusCode extracts the upstream HTTP status code from an error, if any.
func StatusCode(err error) (int, bool) {
	var code kkdai.ErrUnexpectedStatusCode
	if errors.As(err, &code) {
		return int(code), true
	}
	return 0, false
}

// classify marks an upstream error with the matching track sentinel.
func classify(err error) error {
	var playability kkdai.ErrPlayabiltyStatus
	switch {
	case errors.Is(err, kkdai.ErrVideoPrivate),
		errors.Is(err, kkdai.ErrLoginRequired),
		errors.As(err, &playability):
		return errors.Mark(err, track.ErrNotFound)
	case errors.Is(err, kkdai.ErrNoFormat),
		errors.Is(err, kkdai.ErrCipherNotFound),
		errors.Is(err, kkdai.ErrNotPlayableInEmbed):
		return errors.Mark(err, track.ErrUnplayable)
	}

	if code, ok := StatusCode(err); ok {
		switch code {
		case http.StatusTooManyRequests:
			return errors.Mark(err, track.ErrRateLimited)
		case http.StatusNotFound, http.StatusGone:
			return errors.Mark(err, track.ErrNotFound)
		default:
			return errors.Mark(err, track.ErrUpstream)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Mark(err, track.ErrNetwork)
}
