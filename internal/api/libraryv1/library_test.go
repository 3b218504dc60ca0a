package libraryv1

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

func TestTrackConversion(t *testing.T) {
	src := &track.Track{
		ID:          "abc",
		Title:       "Song",
		Artist:      "Artist",
		Album:       "YouTube",
		DurationSec: 215,
		ArtURL:      "https://i.ytimg.com/abc.jpg",
		IsFavorite:  true,
		Source:      track.Remote{Provider: track.ProviderYouTube, Ref: "abc", Verified: true},
	}

	wire := FromTrack(src)
	assert.Equal(t, "youtube", wire.Provider)
	assert.Equal(t, 215, wire.DurationSeconds)

	got, err := wire.ToDomain()
	require.NoError(t, err)
	assert.False(t, got.IsFavorite, "favorite state is not carried on the wire")
	got.IsFavorite = true
	assert.Equal(t, src, got)
}

func TestTrack_ToDomainErrors(t *testing.T) {
	tests := []struct {
		name  string
		track *Track
	}{
		{"nil", nil},
		{"unknown provider", &Track{ID: "a", Provider: "napster"}},
		{"local", &Track{ID: "a", Provider: "local"}},
		{"missing id", &Track{Provider: "audius"}},
		{"negative duration", &Track{ID: "a", Provider: "audius", DurationSeconds: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.track.ToDomain()
			assert.Error(t, err)
		})
	}
}

func TestToDomainTracks_SkipsInvalid(t *testing.T) {
	got := ToDomainTracks([]*Track{
		{ID: "a", Provider: "audius", Title: "A"},
		{ID: "", Provider: "audius"},
		{ID: "b", Provider: "spotify", Preview: "https://p.scdn.co/b"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Source.(track.Remote).Ref)
	assert.Equal(t, "https://p.scdn.co/b", got[1].Source.(track.Remote).Preview)
}

func TestPlaylistConversion(t *testing.T) {
	s := playlist.Summary{ID: "p1", Provider: track.ProviderAudius, Name: "Chill", Owner: "dj", TrackCount: 12}
	assert.Equal(t, s, FromSummary(s).ToSummary())
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	data, err := codec.Marshal(&SearchRequest{Query: "lofi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"lofi"}`, string(data))

	var req SearchRequest
	require.NoError(t, codec.Unmarshal(data, &req))
	assert.Equal(t, "lofi", req.Query)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode connect.Code
	}{
		{"not found", errors.Mark(errors.New("x"), track.ErrNotFound), connect.CodeNotFound},
		{"unplayable", errors.Mark(errors.New("x"), track.ErrUnplayable), connect.CodeFailedPrecondition},
		{"rate limited", errors.Mark(errors.New("x"), track.ErrRateLimited), connect.CodeResourceExhausted},
		{"network", errors.Mark(errors.New("x"), track.ErrNetwork), connect.CodeUnavailable},
		{"deadline", context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{"other", errors.New("x"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := ToConnectError(tt.err)
			assert.Equal(t, tt.wantCode, cerr.Code())
		})
	}
}

func TestFromConnectError(t *testing.T) {
	assert.NoError(t, FromConnectError(nil))

	upstream := connect.NewError(connect.CodeUnavailable, errors.New("x"))
	upstream.Meta().Set(ErrorKindHeader, "upstream")
	assert.True(t, errors.Is(FromConnectError(upstream), track.ErrUpstream))

	plain := connect.NewError(connect.CodeUnavailable, errors.New("x"))
	assert.True(t, errors.Is(FromConnectError(plain), track.ErrNetwork))

	assert.True(t, errors.Is(FromConnectError(connect.NewError(connect.CodeNotFound, nil)), track.ErrNotFound))
	assert.True(t, errors.Is(FromConnectError(errors.New("dial tcp: refused")), track.ErrNetwork))
}
