package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/domain/track"
)

const (
	defaultSearchURL = "https://www.youtube.com/youtubei/v1/search?prettyPrint=false"
	// Restricts results to videos
	videoOnlyParams  = "EgIQAQ=="
	webClientName    = "WEB"
	webClientVersion = "2.20240726.00.00"
)

type searchRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
			GL            string `json:"gl"`
		} `json:"client"`
	} `json:"context"`
	Query  string `json:"query"`
	Params string `json:"params"`
}

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
	SimpleText string `json:"simpleText"`
}

func (t textRuns) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type videoRenderer struct {
	VideoID   string   `json:"videoId"`
	Title     textRuns `json:"title"`
	OwnerText textRuns `json:"ownerText"`
	Length    textRuns `json:"lengthText"`
	Thumbnail struct {
		Thumbnails []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
	OwnerBadges []struct {
		MetadataBadgeRenderer struct {
			Style string `json:"style"`
		} `json:"metadataBadgeRenderer"`
	} `json:"ownerBadges"`
}

// SearchResponse is the subset of the innertube search response that carries
// video results.
type SearchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

// Search searches YouTube for videos and returns at most limit tracks.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*track.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 30
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait failed")
	}

	var body searchRequest
	body.Context.Client.ClientName = webClientName
	body.Context.Client.ClientVersion = webClientVersion
	body.Context.Client.HL = "en"
	body.Context.Client.GL = "US"
	body.Query = query
	body.Params = videoOnlyParams

	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.searchURL, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to send request"), track.ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Mark(errors.New("youtube search rate limited"), track.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Mark(errors.Newf("youtube search returned status %d", resp.StatusCode), track.ErrUpstream)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read response body"), track.ErrNetwork)
	}

	tracks, err := parseSearch(raw, limit)
	if err != nil {
		return nil, err
	}

	zlog.Debug().Msgf("youtube search: query=%s, results=%d", query, len(tracks))
	return tracks, nil
}

// parseSearch converts an innertube search response into tracks.
func parseSearch(raw []byte, limit int) ([]*track.Track, error) {
	var response SearchResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to parse search response"), track.ErrUpstream)
	}

	var tracks []*track.Track
	sections := response.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			if item.VideoRenderer == nil || item.VideoRenderer.VideoID == "" {
				continue
			}
			tracks = append(tracks, convertVideo(item.VideoRenderer))
			if len(tracks) >= limit {
				return tracks, nil
			}
		}
	}
	return tracks, nil
}

func convertVideo(v *videoRenderer) *track.Track {
	title := v.Title.String()
	if title == "" {
		title = "Unknown Title"
	}
	artist := v.OwnerText.String()
	if artist == "" {
		artist = "Unknown Artist"
	}

	var art string
	best := 0
	for _, th := range v.Thumbnail.Thumbnails {
		if th.Width*th.Height >= best {
			best = th.Width * th.Height
			art = th.URL
		}
	}

	verified := false
	for _, b := range v.OwnerBadges {
		if strings.HasPrefix(b.MetadataBadgeRenderer.Style, "BADGE_STYLE_TYPE_VERIFIED") {
			verified = true
			break
		}
	}

	return &track.Track{
		ID:          v.VideoID,
		Title:       title,
		Artist:      artist,
		Album:       "YouTube",
		DurationSec: parseLength(v.Length.String()),
		ArtURL:      art,
		Source: track.Remote{
			Provider: track.ProviderYouTube,
			Ref:      v.VideoID,
			Verified: verified,
		},
	}
}

// parseLength parses "h:mm:ss" or "m:ss" into seconds. Live streams carry no
// length and yield 0.
func parseLength(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
