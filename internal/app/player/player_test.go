package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/syncin/internal/app/catalog"
	"github.com/osa030/syncin/internal/app/favorites"
	"github.com/osa030/syncin/internal/app/playback"
	"github.com/osa030/syncin/internal/domain/favorite"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

type nopTransport struct {
	mu     sync.Mutex
	loads  []playback.Source
	events chan playback.TransportEvent
}

func newNopTransport() *nopTransport {
	return &nopTransport{events: make(chan playback.TransportEvent, 16)}
}

func (n *nopTransport) Load(src playback.Source) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loads = append(n.loads, src)
	return nil
}

func (n *nopTransport) locators() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, l := range n.loads {
		out = append(out, l.Locator)
	}
	return out
}

func (n *nopTransport) Play() error { return nil }
func (n *nopTransport) Pause() {}
func (n *nopTransport) Seek(pos time.Duration) error { return nil }
func (n *nopTransport) SetVolume(level float64) {}
func (n *nopTransport) Position() time.Duration { return 0 }
func (n *nopTransport) Duration() (time.Duration, bool) { return 0, false }
func (n *nopTransport) Events() <-chan playback.TransportEvent { return n.events }

type memStore struct {
	entries []favorite.Entry
}

func (m *memStore) Load() ([]favorite.Entry, error) { return m.entries, nil }
func (m *memStore) Save(entries []favorite.Entry) error { m.entries = entries; return nil }

type fakeLibrary struct {
	searches int
	results  []*track.Track
	err      error
	copies   bool // Return fresh copies, like a real server
}

func (f *fakeLibrary) Search(ctx context.Context, query string) ([]*track.Track, error) {
	f.searches++
	if !f.copies || f.err != nil {
		return f.results, f.err
	}
	out := make([]*track.Track, len(f.results))
	for i, t := range f.results {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f *fakeLibrary) ResolveStream(ctx context.Context, t *track.Track) (string, error) {
	return "http://server/stream?id=" + t.ID, nil
}

func (f *fakeLibrary) FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	return []playlist.Summary{{ID: "p1", Provider: track.ProviderAudius, Name: "Chill"}}, nil
}

func (f *fakeLibrary) PlaylistTracks(ctx context.Context, s playlist.Summary) (*playlist.Playlist, error) {
	return &playlist.Playlist{
		Summary: s,
		Tracks:  []*track.Track{remote("au1", track.ProviderAudius, "Waves")},
	}, nil
}

func local(id, title, artist, album string) *track.Track {
	return &track.Track{
		ID: id, Title: title, Artist: artist, Album: album, DurationSec: 200,
		Source: track.Local{Path: "/music/" + id + ".mp3"},
	}
}

func remote(id string, provider track.Provider, title string) *track.Track {
	return &track.Track{
		ID: id, Title: title, Artist: "Someone", DurationSec: 180,
		Source: track.Remote{Provider: provider, Ref: id},
	}
}

type fixture struct {
	player    *Player
	library   *fakeLibrary
	favorites *favorites.Index
	transport *nopTransport
	session   *playback.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib := &fakeLibrary{results: []*track.Track{
		remote("yt1", track.ProviderYouTube, "Remote Song"),
		remote("yt2", track.ProviderYouTube, "Another"),
	}}
	fav := favorites.New(&memStore{})
	require.NoError(t, fav.Load())

	cat := catalog.New()
	tr := newNopTransport()
	session := playback.New(playback.Config{}, cat, lib, tr, fav)
	t.Cleanup(session.Close)

	localTracks := []*track.Track{
		local("l1", "Sunrise", "Alpha", "Mornings"),
		local("l2", "Dusk", "Beta", "Evenings"),
	}
	return &fixture{
		player:    New(localTracks, lib, fav, cat, session),
		library:   lib,
		favorites: fav,
		transport: tr,
		session:   session,
	}
}

func TestPlayer_StartsAtHome(t *testing.T) {
	f := newFixture(t)

	l := f.player.Listing()
	assert.Equal(t, ViewHome, l.View)
	assert.Equal(t, "My Local Music", l.Title)
	assert.Len(t, l.Tracks, 2)
}

func TestPlayer_Search(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantView     View
		wantTitle    string
		wantIDs      []string
		wantSearches int
	}{
		{"empty shows home", "  ", ViewHome, "My Local Music", []string{"l1", "l2"}, 0},
		{"local match by title", "sun", ViewSearch, `Results in My Music for "sun"`, []string{"l1"}, 0},
		{"local match by album", "EVENINGS", ViewSearch, `Results in My Music for "EVENINGS"`, []string{"l2"}, 0},
		{"falls back to remote", "remote", ViewSearch, `Results for "remote"`, []string{"yt1", "yt2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			l, err := f.player.Search(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantView, l.View)
			assert.Equal(t, tt.wantTitle, l.Title)

			var ids []string
			for _, tr := range l.Tracks {
				ids = append(ids, tr.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantSearches, f.library.searches)
		})
	}
}

func TestPlayer_SearchError(t *testing.T) {
	f := newFixture(t)
	f.library.err = errors.Mark(errors.New("server down"), track.ErrNetwork)

	l, err := f.player.Search(context.Background(), "nothing local")
	require.Error(t, err)
	assert.True(t, errors.Is(err, track.ErrNetwork))
	assert.Empty(t, l.Tracks)
	assert.Contains(t, l.Title, "Error:")
}

func TestPlayer_SearchProjectsFavorites(t *testing.T) {
	f := newFixture(t)
	_, err := f.favorites.Toggle(remote("yt2", track.ProviderYouTube, "Another"))
	require.NoError(t, err)

	l, err := f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	assert.False(t, l.Tracks[0].IsFavorite)
	assert.True(t, l.Tracks[1].IsFavorite)
}

func TestPlayer_ShowFavorites(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.ToggleFavoriteAt(1)
	require.NoError(t, err)
	_, err = f.favorites.Toggle(remote("yt1", track.ProviderYouTube, "Remote Song"))
	require.NoError(t, err)

	l := f.player.ShowFavorites()
	assert.Equal(t, ViewFavorites, l.View)
	require.Len(t, l.Tracks, 2)
	assert.Equal(t, "l2", l.Tracks[0].ID)
	assert.Equal(t, "yt1", l.Tracks[1].ID)

	// Unfavoriting from the favorites view refreshes it.
	on, err := f.player.ToggleFavoriteAt(0)
	require.NoError(t, err)
	assert.False(t, on)
	l = f.player.Listing()
	require.Len(t, l.Tracks, 1)
	assert.Equal(t, "yt1", l.Tracks[0].ID)
}

func TestPlayer_PlayAtLocal(t *testing.T) {
	f := newFixture(t)

	got, err := f.player.PlayAt(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "l2", got.ID)
	assert.Equal(t, playback.StatePlaying, f.session.State())
	assert.Equal(t, []string{"/music/l2.mp3"}, f.transport.locators())

	_, err = f.player.PlayAt(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestPlayer_NextWrapsWithinView(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.SelectAt(1)
	require.NoError(t, err)

	next, err := f.player.Next()
	require.NoError(t, err)
	assert.Equal(t, "l1", next.ID)

	prev, err := f.player.Previous()
	require.NoError(t, err)
	assert.Equal(t, "l2", prev.ID)
}

func TestPlayer_SelectReplacesSequence(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	_, err = f.player.SelectAt(0)
	require.NoError(t, err)

	next, err := f.player.Next()
	require.NoError(t, err)
	assert.Equal(t, "yt2", next.ID)

	assert.Eventually(t, func() bool {
		for _, l := range f.transport.locators() {
			if l == "http://server/stream?id=yt2" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestPlayer_Playlists(t *testing.T) {
	f := newFixture(t)

	lists, err := f.player.FeaturedPlaylists(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, lists, 1)

	l, err := f.player.OpenPlaylist(context.Background(), lists[0])
	require.NoError(t, err)
	assert.Equal(t, ViewPlaylist, l.View)
	assert.Equal(t, "Chill", l.Title)
	require.Len(t, l.Tracks, 1)
	assert.Equal(t, track.ProviderAudius, l.Tracks[0].Provider())
}

func TestPlayer_ToggleFavoriteCurrent(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.ToggleFavoriteCurrent()
	assert.ErrorIs(t, err, playback.ErrNoTrack)

	_, err = f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	_, err = f.player.SelectAt(0)
	require.NoError(t, err)

	on, err := f.player.ToggleFavoriteCurrent()
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 1, f.favorites.Len())
}

func TestPlayer_UnfavoriteFromListUpdatesNowPlaying(t *testing.T) {
	f := newFixture(t)
	f.library.copies = true

	_, err := f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	_, err = f.player.SelectAt(0)
	require.NoError(t, err)

	on, err := f.player.ToggleFavoriteCurrent()
	require.NoError(t, err)
	require.True(t, on)
	require.True(t, f.session.IsFavorite())

	l := f.player.ShowFavorites()
	require.Len(t, l.Tracks, 1)
	cur, ok := f.session.Current()
	require.True(t, ok)
	require.NotSame(t, cur, l.Tracks[0])

	on, err = f.player.ToggleFavoriteAt(0)
	require.NoError(t, err)
	assert.False(t, on)

	assert.False(t, cur.IsFavorite)
	assert.False(t, f.session.IsFavorite())
	assert.False(t, f.favorites.IsFavorite(cur))
	assert.Empty(t, f.player.Listing().Tracks)

	ev := lastFavoriteEvent(t, f.session)
	assert.False(t, ev.Favorite)
}

func TestPlayer_FavoriteCurrentUpdatesListings(t *testing.T) {
	f := newFixture(t)
	f.library.copies = true

	_, err := f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	_, err = f.player.SelectAt(1)
	require.NoError(t, err)

	// A new search shows other copies of the playing track.
	l, err := f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	cur, _ := f.session.Current()
	require.NotSame(t, cur, l.Tracks[1])
	assert.False(t, l.Tracks[1].IsFavorite)

	on, err := f.player.ToggleFavoriteCurrent()
	require.NoError(t, err)
	require.True(t, on)
	assert.True(t, l.Tracks[1].IsFavorite, "rendered row follows the toggle")
	assert.False(t, l.Tracks[0].IsFavorite)

	l, err = f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	assert.True(t, l.Tracks[1].IsFavorite)

	favs := f.player.ShowFavorites()
	require.Len(t, favs.Tracks, 1)
	assert.Equal(t, "yt2", favs.Tracks[0].ID)
	assert.True(t, favs.Tracks[0].IsFavorite)

	on, err = f.player.ToggleFavoriteCurrent()
	require.NoError(t, err)
	require.False(t, on)
	assert.Empty(t, f.player.Listing().Tracks, "favorites view is rebuilt")

	l, err = f.player.Search(context.Background(), "remote")
	require.NoError(t, err)
	assert.False(t, l.Tracks[1].IsFavorite)
}

// lastFavoriteEvent drains the queued session events and returns the last
// favorite change.
func lastFavoriteEvent(t *testing.T, s *playback.Session) playback.Event {
	t.Helper()
	var last playback.Event
	found := false
	for {
		select {
		case ev := <-s.Events():
			if ev.Type == playback.EventFavoriteChanged {
				last, found = ev, true
			}
		default:
			require.True(t, found, "no favorite_changed event")
			return last
		}
	}
}

func TestPlayer_NoLibrary(t *testing.T) {
	cat := catalog.New()
	session := playback.New(playback.Config{}, cat, nil, newNopTransport(), nil)
	t.Cleanup(session.Close)
	p := New([]*track.Track{local("l1", "Sunrise", "Alpha", "")}, nil, nil, cat, session)

	l, err := p.Search(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, `No results for "zzz"`, l.Title)

	_, err = p.OpenPlaylist(context.Background(), playlist.Summary{ID: "p"})
	assert.Error(t, err)

	_, err = p.ToggleFavoriteAt(0)
	assert.Error(t, err)
}

func TestView_String(t *testing.T) {
	assert.Equal(t, "home", ViewHome.String())
	assert.Equal(t, "playlist", ViewPlaylist.String())
	assert.Equal(t, "unknown", View(42).String())
}
