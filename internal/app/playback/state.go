// Package playback provides the playback session: the single now-playing
// slot and the load-state machine between catalog selection and the audio
// transport.
package playback

// State represents the load/playback state of the session.
type State int

const (
	StateIdle      State = iota // No current track
	StateResolving              // Remote stream locator requested, awaiting first playable signal
	StateReady                  // Transport can play (local tracks are ready immediately)
	StatePlaying                // Transport is playing
	StatePaused                 // Transport is paused
	StateFailed                 // Load failed; terminal for the current track
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// loaded reports whether the transport holds a playable source.
func (s State) loaded() bool {
	return s == StateReady || s == StatePlaying || s == StatePaused
}
