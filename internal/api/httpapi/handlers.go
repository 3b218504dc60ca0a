// Package httpapi provides the plain HTTP endpoints of the server: the audio
// relay, health and probe routes.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	libraryv1 "github.com/osa030/syncin/internal/api/libraryv1"
	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/config"
	"github.com/osa030/syncin/internal/infra/youtube"
)

// relayHeaders are copied from the upstream response to the client.
var relayHeaders = []string{"Content-Length", "Content-Range", "Last-Modified", "ETag"}

// Streamer resolves and opens YouTube audio streams.
type Streamer interface {
	AudioStream(ctx context.Context, videoID string) (*youtube.Stream, error)
	Open(ctx context.Context, s *youtube.Stream, rangeHeader string) (*http.Response, error)
	Probe(ctx context.Context, videoID string) youtube.ProbeResult
	CacheLen() int
}

// Searcher runs a filtered search across the configured providers.
type Searcher interface {
	Search(ctx context.Context, query string) ([]*track.Track, error)
}

// Handler serves the HTTP endpoints.
type Handler struct {
	streamer Streamer
	searcher Searcher
	messages config.MessagesConfig
	now      func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(streamer Streamer, searcher Searcher, messages config.MessagesConfig) *Handler {
	return &Handler{
		streamer: streamer,
		searcher: searcher,
		messages: messages,
		now:      time.Now,
	}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /stream", h.handleStream)
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /test/{id}", h.handleProbe)
}

type errorResponse struct {
	Error      string `json:"error"`
	VideoID    string `json:"videoId,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	videoID, err := youtube.ValidateID(raw)
	if raw == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Valid Video ID is required"})
		return
	}

	ctx := r.Context()
	zlog.Info().Msgf("stream requested: video_id=%s, range=%q", videoID, r.Header.Get("Range"))

	stream, err := h.streamer.AudioStream(ctx, videoID)
	if err != nil {
		h.writeStreamError(w, videoID, err)
		return
	}

	resp, err := h.streamer.Open(ctx, stream, r.Header.Get("Range"))
	if err != nil {
		h.writeStreamError(w, videoID, err)
		return
	}
	defer resp.Body.Close()

	contentType := stream.MimeType
	if contentType == "" {
		contentType = "audio/webm"
	}
	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", "no-cache")
	for _, name := range relayHeaders {
		if v := resp.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			zlog.Info().Msgf("client disconnected: video_id=%s, bytes=%d", videoID, n)
			return
		}
		zlog.Warn().Err(err).Msgf("stream relay interrupted: video_id=%s, bytes=%d", videoID, n)
		return
	}
	zlog.Debug().Msgf("stream finished: video_id=%s, bytes=%d", videoID, n)
}

// writeStreamError maps a resolution or upstream error onto a JSON body.
func (h *Handler) writeStreamError(w http.ResponseWriter, videoID string, err error) {
	status, message := h.streamFailure(err)
	zlog.Warn().Err(err).Msgf("stream failed: video_id=%s, status=%d", videoID, status)
	writeJSON(w, status, errorResponse{
		Error:      message,
		VideoID:    videoID,
		Suggestion: h.messages.Suggestion,
	})
}

func (h *Handler) streamFailure(err error) (int, string) {
	if code, ok := youtube.StatusCode(err); ok {
		switch code {
		case http.StatusGone:
			return http.StatusGone, h.messages.StreamGone
		case http.StatusForbidden:
			return http.StatusForbidden, h.messages.StreamForbidden
		}
	}

	switch {
	case errors.Is(err, track.ErrUnplayable):
		return http.StatusNotFound, h.messages.NoAudioFormat
	case errors.Is(err, track.ErrNotFound):
		return http.StatusNotFound, h.messages.StreamUnavailable
	case errors.Is(err, track.ErrRateLimited):
		return http.StatusTooManyRequests, h.messages.StreamRateLimited
	default:
		return http.StatusBadGateway, h.messages.StreamDefault
	}
}

type searchResponse struct {
	Results []*libraryv1.Track `json:"results"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Search query is required"})
		return
	}

	tracks, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		zlog.Warn().Err(err).Msgf("search failed: query=%q", query)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to fetch search results"})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: libraryv1.FromTracks(tracks)})
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	CacheSize int    `json:"cache_size"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		CacheSize: h.streamer.CacheLen(),
	})
}

type probeResponse struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	Length    int    `json:"length"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("id")
	result := h.streamer.Probe(r.Context(), videoID)
	writeJSON(w, http.StatusOK, probeResponse{
		VideoID:   videoID,
		Title:     result.Title,
		Author:    result.Author,
		Length:    result.DurationSec,
		Available: result.Available,
		Error:     result.Error,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("failed to write response")
	}
}
