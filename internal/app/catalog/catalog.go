// Package catalog provides the ordered track sequence currently in view.
package catalog

import (
	"sync"

	"github.com/osa030/syncin/internal/domain/track"
)

// Direction is the cursor movement for Advance.
type Direction int

const (
	// Next moves the cursor forward.
	Next Direction = 1
	// Previous moves the cursor backward.
	Previous Direction = -1
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Previous:
		return "previous"
	default:
		return "unknown"
	}
}

// Catalog is an ordered track sequence plus a cursor.
// The cursor is -1 (no selection) or a valid index.
type Catalog struct {
	mu     sync.RWMutex
	name   string
	tracks []*track.Track
	cursor int
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{cursor: -1}
}

// Replace installs a new sequence. If the previously selected track is part
// of the new sequence the cursor follows it, otherwise it resets to -1.
// Replace never touches playback.
func (c *Catalog) Replace(name string, tracks []*track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var currentID string
	if c.cursor >= 0 {
		currentID = c.tracks[c.cursor].ID
	}

	c.name = name
	c.tracks = make([]*track.Track, len(tracks))
	copy(c.tracks, tracks)
	c.cursor = -1

	if currentID != "" {
		if i := c.indexOfLocked(currentID); i >= 0 {
			c.cursor = i
		}
	}
}

// Name returns the name of the active sequence (e.g. "Favorites").
func (c *Catalog) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// Tracks returns a copy of the sequence.
func (c *Catalog) Tracks() []*track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*track.Track, len(c.tracks))
	copy(result, c.tracks)
	return result
}

// IndexOf returns the index of the track with the given ID.
func (c *Catalog) IndexOf(id string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOfLocked(id)
	return i, i >= 0
}

func (c *Catalog) indexOfLocked(id string) int {
	for i, t := range c.tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the track with the given ID.
func (c *Catalog) Get(id string) (*track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOfLocked(id); i >= 0 {
		return c.tracks[i], true
	}
	return nil, false
}

// Cursor returns the current index, or -1.
func (c *Catalog) Cursor() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Current returns the track under the cursor.
func (c *Catalog) Current() (*track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cursor < 0 {
		return nil, false
	}
	return c.tracks[c.cursor], true
}

// SelectAt moves the cursor to index i.
func (c *Catalog) SelectAt(i int) (*track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.tracks) {
		return nil, false
	}
	c.cursor = i
	return c.tracks[i], true
}

// SelectID moves the cursor to the track with the given ID.
func (c *Catalog) SelectID(id string) (*track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfLocked(id)
	if i < 0 {
		return nil, false
	}
	c.cursor = i
	return c.tracks[i], true
}

// Advance moves the cursor one step with wrap-around in both directions and
// returns the track it lands on. It returns false on an empty catalog.
func (c *Catalog) Advance(dir Direction) (*track.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.tracks)
	if n == 0 {
		return nil, false
	}

	index := c.cursor
	if index < 0 {
		// No selection yet: Next lands on the first track, Previous on the last.
		if dir == Previous {
			index = 0
		} else {
			index = -1
		}
	}
	c.cursor = (index + int(dir) + n) % n
	return c.tracks[c.cursor], true
}

// Filter returns the tracks matching pred as a derived, read-only sequence.
// The catalog itself is not modified.
func (c *Catalog) Filter(pred func(*track.Track) bool) []*track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*track.Track, 0)
	for _, t := range c.tracks {
		if pred(t) {
			result = append(result, t)
		}
	}
	return result
}
