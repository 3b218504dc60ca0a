package playback

import "time"

// Source is what the session hands to the transport for one load attempt.
// Token identifies the attempt; every event produced for this source carries it.
type Source struct {
	Token   uint64
	Locator string // File path or stream URL
}

// TransportEventType represents a transport notification.
type TransportEventType int

const (
	TransportCanPlay        TransportEventType = iota // Source is decodable and can start
	TransportError                                    // Decode or network failure
	TransportTimeUpdate                               // Position advanced
	TransportLoadedMetadata                           // Duration became known
	TransportEnded                                    // Source played to the end
)

// String returns the string representation of the transport event type.
func (t TransportEventType) String() string {
	switch t {
	case TransportCanPlay:
		return "can_play"
	case TransportError:
		return "error"
	case TransportTimeUpdate:
		return "time_update"
	case TransportLoadedMetadata:
		return "loaded_metadata"
	case TransportEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// TransportEvent is a notification from the transport.
type TransportEvent struct {
	Type     TransportEventType
	Token    uint64
	Position time.Duration // TransportTimeUpdate
	Err      error         // TransportError
}

// Transport is the audio output primitive driven by the session.
// The session is its only user.
type Transport interface {
	// Load replaces the current source. Readiness is reported asynchronously
	// with TransportCanPlay or TransportError.
	Load(src Source) error
	Play() error
	Pause()
	Seek(pos time.Duration) error
	SetVolume(level float64)
	Position() time.Duration
	// Duration returns the source duration, or false while it is unknown.
	Duration() (time.Duration, bool)
	Events() <-chan TransportEvent
}
