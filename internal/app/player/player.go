// Package player provides the player facade: the views a user browses, the
// local-first search, and the hand-off from a view to the playback session.
package player

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/app/catalog"
	"github.com/osa030/syncin/internal/app/playback"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

// ErrNoSelection is returned when an index is outside the current view.
var ErrNoSelection = errors.New("no track at index")

// View identifies what the player is showing.
type View int

const (
	ViewHome      View = iota // Local library
	ViewSearch                // Search results
	ViewFavorites             // Local favorites plus the remote index
	ViewPlaylist              // Tracks of a featured playlist
)

// String returns the string representation of the view.
func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewSearch:
		return "search"
	case ViewFavorites:
		return "favorites"
	case ViewPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Library is the remote side of the player.
type Library interface {
	Search(ctx context.Context, query string) ([]*track.Track, error)
	FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error)
	PlaylistTracks(ctx context.Context, s playlist.Summary) (*playlist.Playlist, error)
}

// Favorites is the favorites index as the player uses it.
type Favorites interface {
	IsFavorite(t *track.Track) bool
	Toggle(t *track.Track) (bool, error)
	Project(tracks []*track.Track)
	Tracks() []*track.Track
}

// Listing is a snapshot of the current view.
type Listing struct {
	View   View
	Title  string
	Tracks []*track.Track
}

// Player ties the views to the catalog and the playback session.
type Player struct {
	mu sync.Mutex

	local     []*track.Track
	library   Library
	favorites Favorites
	catalog   *catalog.Catalog
	session   *playback.Session

	listing Listing
}

// New creates a player showing the local library.
func New(local []*track.Track, library Library, favorites Favorites, cat *catalog.Catalog, session *playback.Session) *Player {
	p := &Player{
		local:     local,
		library:   library,
		favorites: favorites,
		catalog:   cat,
		session:   session,
	}
	p.listing = p.homeListing()
	return p
}

// Listing returns the current view.
func (p *Player) Listing() Listing {
	p.mu.Lock()
	defer p.mu.Unlock()

	l := p.listing
	l.Tracks = append([]*track.Track(nil), p.listing.Tracks...)
	return l
}

// ShowHome shows the local library.
func (p *Player) ShowHome() Listing {
	p.mu.Lock()
	p.listing = p.homeListing()
	p.mu.Unlock()
	return p.Listing()
}

func (p *Player) homeListing() Listing {
	return Listing{View: ViewHome, Title: "My Local Music", Tracks: p.local}
}

// Search shows the local tracks matching query. Only when nothing local
// matches is the remote library searched. An empty query shows home.
func (p *Player) Search(ctx context.Context, query string) (Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return p.ShowHome(), nil
	}

	var local []*track.Track
	for _, t := range p.local {
		if t.Matches(query) {
			local = append(local, t)
		}
	}
	if len(local) > 0 {
		zlog.Debug().Msgf("local search hit: query=%q, results=%d", query, len(local))
		return p.show(Listing{
			View:   ViewSearch,
			Title:  fmt.Sprintf("Results in My Music for %q", query),
			Tracks: local,
		}), nil
	}

	if p.library == nil {
		return p.show(Listing{View: ViewSearch, Title: fmt.Sprintf("No results for %q", query)}), nil
	}

	results, err := p.library.Search(ctx, query)
	if err != nil {
		p.show(Listing{View: ViewSearch, Title: "Error: " + err.Error()})
		return p.Listing(), errors.Wrapf(err, "online search for %q failed", query)
	}
	if p.favorites != nil {
		p.favorites.Project(results)
	}
	return p.show(Listing{
		View:   ViewSearch,
		Title:  fmt.Sprintf("Results for %q", query),
		Tracks: results,
	}), nil
}

// ShowFavorites shows the local tracks flagged favorite followed by the
// remote favorites, oldest first.
func (p *Player) ShowFavorites() Listing {
	seen := make(map[string]bool)
	var tracks []*track.Track
	for _, t := range p.local {
		fav := t.IsFavorite
		if p.favorites != nil {
			fav = p.favorites.IsFavorite(t)
		}
		if fav && !seen[t.Key()] {
			seen[t.Key()] = true
			tracks = append(tracks, t)
		}
	}
	if p.favorites != nil {
		for _, t := range p.favorites.Tracks() {
			if !seen[t.Key()] {
				seen[t.Key()] = true
				tracks = append(tracks, t)
			}
		}
	}
	return p.show(Listing{View: ViewFavorites, Title: "Favorites", Tracks: tracks})
}

// FeaturedPlaylists lists the featured playlists of the remote library.
func (p *Player) FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error) {
	if p.library == nil {
		return nil, nil
	}
	return p.library.FeaturedPlaylists(ctx, limit)
}

// OpenPlaylist shows the tracks of a featured playlist.
func (p *Player) OpenPlaylist(ctx context.Context, s playlist.Summary) (Listing, error) {
	if p.library == nil {
		return p.Listing(), errors.New("no library server configured")
	}
	pl, err := p.library.PlaylistTracks(ctx, s)
	if err != nil {
		return p.Listing(), errors.Wrapf(err, "failed to open playlist %s", s.Name)
	}
	if p.favorites != nil {
		p.favorites.Project(pl.Tracks)
	}
	return p.show(Listing{View: ViewPlaylist, Title: pl.Name, Tracks: pl.Tracks}), nil
}

// SelectAt makes the current view the active sequence and selects the
// track at index i.
func (p *Player) SelectAt(i int) (*track.Track, error) {
	p.mu.Lock()
	listing := p.listing
	p.mu.Unlock()

	if i < 0 || i >= len(listing.Tracks) {
		return nil, errors.Wrapf(ErrNoSelection, "index %d", i)
	}
	t := listing.Tracks[i]

	p.catalog.Replace(listing.Title, listing.Tracks)
	if _, ok := p.catalog.SelectAt(i); !ok {
		return nil, errors.Wrapf(ErrNoSelection, "index %d", i)
	}
	if err := p.session.Select(t); err != nil {
		return nil, err
	}
	return t, nil
}

// PlayAt selects the track at index i and starts it. Play blocks while a
// remote track resolves.
func (p *Player) PlayAt(ctx context.Context, i int) (*track.Track, error) {
	t, err := p.SelectAt(i)
	if err != nil {
		return nil, err
	}
	return t, p.session.Play(ctx)
}

// Next plays the next track of the active sequence, wrapping around.
func (p *Player) Next() (*track.Track, error) {
	return p.session.Advance(catalog.Next)
}

// Previous plays the previous track of the active sequence, wrapping around.
func (p *Player) Previous() (*track.Track, error) {
	return p.session.Advance(catalog.Previous)
}

// Toggle plays or pauses the current track.
func (p *Player) Toggle(ctx context.Context) error {
	return p.session.Toggle(ctx)
}

// ToggleFavoriteAt flips the favorite state of the track at index i of the
// current view. Other live copies of the track (now playing, the listing)
// follow the new state.
func (p *Player) ToggleFavoriteAt(i int) (bool, error) {
	p.mu.Lock()
	listing := p.listing
	p.mu.Unlock()

	if i < 0 || i >= len(listing.Tracks) {
		return false, errors.Wrapf(ErrNoSelection, "index %d", i)
	}
	if p.favorites == nil {
		return false, errors.New("favorites are not available")
	}

	t := listing.Tracks[i]
	on, err := p.favorites.Toggle(t)
	if err != nil {
		return on, err
	}

	if cur, ok := p.session.Current(); ok && cur != t && cur.Key() == t.Key() {
		p.favorites.Project([]*track.Track{cur})
	}
	p.session.RefreshFavorite()
	p.refreshFavorites()
	return on, nil
}

// ToggleFavoriteCurrent flips the favorite state of the playing track.
func (p *Player) ToggleFavoriteCurrent() (bool, error) {
	on, err := p.session.ToggleFavorite()
	if err != nil {
		return on, err
	}
	p.refreshFavorites()
	return on, nil
}

// refreshFavorites projects the index onto the active listing. The
// favorites view is rebuilt since its membership may have changed.
func (p *Player) refreshFavorites() {
	p.mu.Lock()
	listing := p.listing
	p.mu.Unlock()

	if listing.View == ViewFavorites {
		p.ShowFavorites()
		return
	}
	if p.favorites != nil {
		p.favorites.Project(listing.Tracks)
	}
}

// Session returns the playback session.
func (p *Player) Session() *playback.Session {
	return p.session
}

func (p *Player) show(l Listing) Listing {
	p.mu.Lock()
	p.listing = l
	p.mu.Unlock()
	return p.Listing()
}
