package libraryv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// LibraryServiceName is the fully-qualified name of the LibraryService.
const LibraryServiceName = "syncin.library.v1.LibraryService"

// Procedure paths of the LibraryService.
const (
	LibraryServiceSearchProcedure            = "/syncin.library.v1.LibraryService/Search"
	LibraryServiceResolveStreamProcedure     = "/syncin.library.v1.LibraryService/ResolveStream"
	LibraryServiceFeaturedPlaylistsProcedure = "/syncin.library.v1.LibraryService/FeaturedPlaylists"
	LibraryServicePlaylistTracksProcedure    = "/syncin.library.v1.LibraryService/PlaylistTracks"
	LibraryServiceProbeProcedure             = "/syncin.library.v1.LibraryService/Probe"
)

// LibraryServiceHandler is implemented by the library server.
type LibraryServiceHandler interface {
	Search(context.Context, *connect.Request[SearchRequest]) (*connect.Response[SearchResponse], error)
	ResolveStream(context.Context, *connect.Request[ResolveStreamRequest]) (*connect.Response[ResolveStreamResponse], error)
	FeaturedPlaylists(context.Context, *connect.Request[FeaturedPlaylistsRequest]) (*connect.Response[FeaturedPlaylistsResponse], error)
	PlaylistTracks(context.Context, *connect.Request[PlaylistTracksRequest]) (*connect.Response[PlaylistTracksResponse], error)
	Probe(context.Context, *connect.Request[ProbeRequest]) (*connect.Response[ProbeResponse], error)
}

// NewLibraryServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler.
func NewLibraryServiceHandler(svc LibraryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	search := connect.NewUnaryHandler(LibraryServiceSearchProcedure, svc.Search, opts...)
	resolve := connect.NewUnaryHandler(LibraryServiceResolveStreamProcedure, svc.ResolveStream, opts...)
	featured := connect.NewUnaryHandler(LibraryServiceFeaturedPlaylistsProcedure, svc.FeaturedPlaylists, opts...)
	playlistTracks := connect.NewUnaryHandler(LibraryServicePlaylistTracksProcedure, svc.PlaylistTracks, opts...)
	probe := connect.NewUnaryHandler(LibraryServiceProbeProcedure, svc.Probe, opts...)

	return "/" + LibraryServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LibraryServiceSearchProcedure:
			search.ServeHTTP(w, r)
		case LibraryServiceResolveStreamProcedure:
			resolve.ServeHTTP(w, r)
		case LibraryServiceFeaturedPlaylistsProcedure:
			featured.ServeHTTP(w, r)
		case LibraryServicePlaylistTracksProcedure:
			playlistTracks.ServeHTTP(w, r)
		case LibraryServiceProbeProcedure:
			probe.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// LibraryServiceClient is a client for the LibraryService.
type LibraryServiceClient struct {
	search         *connect.Client[SearchRequest, SearchResponse]
	resolve        *connect.Client[ResolveStreamRequest, ResolveStreamResponse]
	featured       *connect.Client[FeaturedPlaylistsRequest, FeaturedPlaylistsResponse]
	playlistTracks *connect.Client[PlaylistTracksRequest, PlaylistTracksResponse]
	probe          *connect.Client[ProbeRequest, ProbeResponse]
}

// NewLibraryServiceClient constructs a client for the LibraryService at
// baseURL (e.g. http://localhost:3000).
func NewLibraryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LibraryServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &LibraryServiceClient{
		search:         connect.NewClient[SearchRequest, SearchResponse](httpClient, baseURL+LibraryServiceSearchProcedure, opts...),
		resolve:        connect.NewClient[ResolveStreamRequest, ResolveStreamResponse](httpClient, baseURL+LibraryServiceResolveStreamProcedure, opts...),
		featured:       connect.NewClient[FeaturedPlaylistsRequest, FeaturedPlaylistsResponse](httpClient, baseURL+LibraryServiceFeaturedPlaylistsProcedure, opts...),
		playlistTracks: connect.NewClient[PlaylistTracksRequest, PlaylistTracksResponse](httpClient, baseURL+LibraryServicePlaylistTracksProcedure, opts...),
		probe:          connect.NewClient[ProbeRequest, ProbeResponse](httpClient, baseURL+LibraryServiceProbeProcedure, opts...),
	}
}

func (c *LibraryServiceClient) Search(ctx context.Context, req *connect.Request[SearchRequest]) (*connect.Response[SearchResponse], error) {
	return c.search.CallUnary(ctx, req)
}

func (c *LibraryServiceClient) ResolveStream(ctx context.Context, req *connect.Request[ResolveStreamRequest]) (*connect.Response[ResolveStreamResponse], error) {
	return c.resolve.CallUnary(ctx, req)
}

func (c *LibraryServiceClient) FeaturedPlaylists(ctx context.Context, req *connect.Request[FeaturedPlaylistsRequest]) (*connect.Response[FeaturedPlaylistsResponse], error) {
	return c.featured.CallUnary(ctx, req)
}

func (c *LibraryServiceClient) PlaylistTracks(ctx context.Context, req *connect.Request[PlaylistTracksRequest]) (*connect.Response[PlaylistTracksResponse], error) {
	return c.playlistTracks.CallUnary(ctx, req)
}

func (c *LibraryServiceClient) Probe(ctx context.Context, req *connect.Request[ProbeRequest]) (*connect.Response[ProbeResponse], error) {
	return c.probe.CallUnary(ctx, req)
}
