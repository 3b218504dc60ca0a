package playback

import "github.com/osa030/syncin/internal/domain/track"

// EventType represents a session event type.
type EventType int

const (
	EventTrackChanged    EventType = iota // A new track was selected
	EventStateChanged                     // Load or playback state changed
	EventLoading                          // Play is waiting for a remote track to become ready
	EventProgress                         // Playback position update
	EventFailed                           // Current track failed to load or play
	EventFavoriteChanged                  // Favorite state of the current track changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventLoading:
		return "loading"
	case EventProgress:
		return "progress"
	case EventFailed:
		return "failed"
	case EventFavoriteChanged:
		return "favorite_changed"
	default:
		return "unknown"
	}
}

// Event represents a session event.
type Event struct {
	Type     EventType
	Track    *track.Track // Current track (nil when idle)
	State    State
	Playing  bool     // Play/pause indicator
	Favorite bool     // Favorite state of Track when the event was sent
	Progress Progress // Set for EventProgress
	Err      error    // Set for EventFailed
	Caption  Caption  // Set for EventFailed
}
