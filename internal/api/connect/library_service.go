package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	libraryv1 "github.com/osa030/syncin/internal/api/libraryv1"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/youtube"
)

const (
	defaultPlaylistLimit = 12
	maxPlaylistLimit     = 50
)

// Library is the provider chain served by the LibraryService.
type Library interface {
	Search(ctx context.Context, query string) ([]*track.Track, error)
	ResolveStream(ctx context.Context, t *track.Track) (string, error)
	FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error)
	PlaylistTracks(ctx context.Context, provider track.Provider, playlistID string) ([]*track.Track, error)
}

// Prober reports whether a YouTube video can be fetched.
type Prober interface {
	Probe(ctx context.Context, videoID string) youtube.ProbeResult
}

// LibraryService implements the LibraryService RPC.
type LibraryService struct {
	library Library
	prober  Prober
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(library Library, prober Prober) *LibraryService {
	return &LibraryService{
		library: library,
		prober:  prober,
	}
}

// Ensure LibraryService implements the interface.
var _ libraryv1.LibraryServiceHandler = (*LibraryService)(nil)

// Search handles track searches.
func (s *LibraryService) Search(
	ctx context.Context,
	req *connect.Request[libraryv1.SearchRequest],
) (*connect.Response[libraryv1.SearchResponse], error) {
	if req.Msg.Query == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("query parameter is required"))
	}

	tracks, err := s.library.Search(ctx, req.Msg.Query)
	if err != nil {
		zlog.Warn().Err(err).Msgf("search failed: query=%q", req.Msg.Query)
		return nil, libraryv1.ToConnectError(err)
	}

	zlog.Debug().Msgf("search: query=%q results=%d", req.Msg.Query, len(tracks))
	return connect.NewResponse(&libraryv1.SearchResponse{
		Tracks: libraryv1.FromTracks(tracks),
	}), nil
}

// ResolveStream resolves a track to its stream locator.
func (s *LibraryService) ResolveStream(
	ctx context.Context,
	req *connect.Request[libraryv1.ResolveStreamRequest],
) (*connect.Response[libraryv1.ResolveStreamResponse], error) {
	t, err := req.Msg.Track.ToDomain()
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	locator, err := s.library.ResolveStream(ctx, t)
	if err != nil {
		zlog.Warn().Err(err).Msgf("resolve failed: track=%s", t.Key())
		return nil, libraryv1.ToConnectError(err)
	}

	return connect.NewResponse(&libraryv1.ResolveStreamResponse{
		Locator: locator,
	}), nil
}

// FeaturedPlaylists lists featured playlists.
func (s *LibraryService) FeaturedPlaylists(
	ctx context.Context,
	req *connect.Request[libraryv1.FeaturedPlaylistsRequest],
) (*connect.Response[libraryv1.FeaturedPlaylistsResponse], error) {
	limit := req.Msg.Limit
	if limit <= 0 {
		limit = defaultPlaylistLimit
	}
	if limit > maxPlaylistLimit {
		limit = maxPlaylistLimit
	}

	lists, err := s.library.FeaturedPlaylists(ctx, limit)
	if err != nil {
		return nil, libraryv1.ToConnectError(err)
	}

	out := make([]*libraryv1.Playlist, 0, len(lists))
	for _, l := range lists {
		out = append(out, libraryv1.FromSummary(l))
	}
	return connect.NewResponse(&libraryv1.FeaturedPlaylistsResponse{
		Playlists: out,
	}), nil
}

// PlaylistTracks lists the tracks of a featured playlist.
func (s *LibraryService) PlaylistTracks(
	ctx context.Context,
	req *connect.Request[libraryv1.PlaylistTracksRequest],
) (*connect.Response[libraryv1.PlaylistTracksResponse], error) {
	provider, err := track.ParseProvider(req.Msg.Provider)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if req.Msg.PlaylistID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("playlist id is required"))
	}

	tracks, err := s.library.PlaylistTracks(ctx, provider, req.Msg.PlaylistID)
	if err != nil {
		return nil, libraryv1.ToConnectError(err)
	}

	return connect.NewResponse(&libraryv1.PlaylistTracksResponse{
		Tracks: libraryv1.FromTracks(tracks),
	}), nil
}

// Probe reports whether a YouTube video can be fetched.
func (s *LibraryService) Probe(
	ctx context.Context,
	req *connect.Request[libraryv1.ProbeRequest],
) (*connect.Response[libraryv1.ProbeResponse], error) {
	if s.prober == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("probe is not available"))
	}
	id, err := youtube.ValidateID(req.Msg.VideoID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result := s.prober.Probe(ctx, id)
	return connect.NewResponse(&libraryv1.ProbeResponse{
		VideoID:       result.VideoID,
		Title:         result.Title,
		Author:        result.Author,
		LengthSeconds: result.DurationSec,
		Available:     result.Available,
		Error:         result.Error,
	}), nil
}
