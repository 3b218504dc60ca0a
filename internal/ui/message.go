package ui

import (
	"github.com/osa030/syncin/internal/app/player"
	"github.com/osa030/syncin/internal/app/playback"
	"github.com/osa030/syncin/internal/domain/playlist"
)

// listingMsg carries a new track listing to show.
type listingMsg struct {
	listing player.Listing
	err     error
}

// playlistsMsg carries the featured playlists.
type playlistsMsg struct {
	playlists []playlist.Summary
	err       error
}

// sessionEventMsg wraps an event from the playback session.
type sessionEventMsg playback.Event

// sessionClosedMsg is sent once the session's event channel is closed.
type sessionClosedMsg struct{}

// actionMsg reports the outcome of a fire-and-forget action.
type actionMsg struct {
	notice string
	err    error
}
