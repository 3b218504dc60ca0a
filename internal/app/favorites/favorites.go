// Package favorites provides the favorites index.
// Local tracks carry their favorite flag in the record itself; remote tracks
// are tracked in a persisted side index keyed by provider and id.
package favorites

import (
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/domain/favorite"
	"github.com/osa030/syncin/internal/domain/track"
)

// Store persists favorite entries. Save receives the full list and replaces
// whatever was stored before.
type Store interface {
	Load() ([]favorite.Entry, error)
	Save(entries []favorite.Entry) error
}

// Index is the favorites index.
type Index struct {
	mu      sync.RWMutex
	store   Store
	entries map[string]favorite.Entry
	now     func() time.Time
}

// Option configures an Index.
type Option func(*Index)

// WithClock overrides the clock used for added-at timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Index) {
		i.now = now
	}
}

// New creates an empty Index backed by store. A nil store keeps the index in
// memory only.
func New(store Store, opts ...Option) *Index {
	idx := &Index{
		store:   store,
		entries: make(map[string]favorite.Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Load replaces the in-memory index with the stored entries.
func (i *Index) Load() error {
	if i.store == nil {
		return nil
	}
	entries, err := i.store.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load favorites")
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = make(map[string]favorite.Entry, len(entries))
	for _, e := range entries {
		i.entries[entryKey(e.Provider, e.ID)] = e
	}
	zlog.Info().Msgf("favorites loaded: count=%d", len(entries))
	return nil
}

// IsFavorite reports whether t is a favorite.
func (i *Index) IsFavorite(t *track.Track) bool {
	if t == nil {
		return false
	}
	switch t.Source.(type) {
	case track.Local:
		i.mu.RLock()
		defer i.mu.RUnlock()
		return t.IsFavorite
	case track.Remote:
		i.mu.RLock()
		defer i.mu.RUnlock()
		_, ok := i.entries[t.Key()]
		return ok
	default:
		return false
	}
}

// Toggle flips the favorite state of t and returns the new state.
// Track favorite flags are only written while the index lock is held.
// For remote tracks the new index is persisted before returning; if that
// fails the in-memory change is rolled back.
func (i *Index) Toggle(t *track.Track) (bool, error) {
	if t == nil {
		return false, errors.New("track is nil")
	}

	switch t.Source.(type) {
	case track.Local:
		i.mu.Lock()
		defer i.mu.Unlock()
		t.IsFavorite = !t.IsFavorite
		return t.IsFavorite, nil
	case track.Remote:
		return i.toggleRemote(t)
	default:
		return false, errors.Newf("track %s has no source", t.ID)
	}
}

func (i *Index) toggleRemote(t *track.Track) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	key := t.Key()
	prev, existed := i.entries[key]
	if existed {
		delete(i.entries, key)
	} else {
		i.entries[key] = favorite.NewEntry(t, i.now())
	}

	if err := i.persistLocked(); err != nil {
		if existed {
			i.entries[key] = prev
		} else {
			delete(i.entries, key)
		}
		return existed, err
	}

	t.IsFavorite = !existed
	zlog.Info().Msgf("favorite toggled: key=%s favorite=%t", key, !existed)
	return !existed, nil
}

func (i *Index) persistLocked() error {
	if i.store == nil {
		return nil
	}
	if err := i.store.Save(i.sortedLocked()); err != nil {
		return errors.Wrap(err, "failed to save favorites")
	}
	return nil
}

// Project writes the index's membership onto the remote tracks in tracks.
// Local tracks keep their own flag.
func (i *Index) Project(tracks []*track.Track) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, t := range tracks {
		if t == nil {
			continue
		}
		if _, ok := t.Source.(track.Remote); ok {
			_, t.IsFavorite = i.entries[t.Key()]
		}
	}
}

// Entries returns all remote favorites ordered by the time they were added.
func (i *Index) Entries() []favorite.Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.sortedLocked()
}

// Tracks returns the remote favorites as tracks, oldest first.
func (i *Index) Tracks() []*track.Track {
	entries := i.Entries()
	tracks := make([]*track.Track, len(entries))
	for n, e := range entries {
		tracks[n] = e.ToTrack()
	}
	return tracks
}

// Len returns the number of remote favorites.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func (i *Index) sortedLocked() []favorite.Entry {
	result := make([]favorite.Entry, 0, len(i.entries))
	for _, e := range i.entries {
		result = append(result, e)
	}
	sort.SliceStable(result, func(a, b int) bool {
		if result[a].AddedAt.Equal(result[b].AddedAt) {
			return entryKey(result[a].Provider, result[a].ID) < entryKey(result[b].Provider, result[b].ID)
		}
		return result[a].AddedAt.Before(result[b].AddedAt)
	})
	return result
}

func entryKey(p track.Provider, id string) string {
	return string(p) + ":" + id
}
