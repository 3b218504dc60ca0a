// Package ui implements the terminal player on bubbletea's Elm architecture.
//
// The [Model] shows one track listing at a time (the local library, search
// results, favorites or a featured playlist) above a now-playing bar fed by
// the playback session's event channel. Long-running work such as searching
// or waiting for a remote track to resolve runs in [tea.Cmd] goroutines and
// comes back as messages.
//
// Keyboard navigation uses vim-style bindings with contextual help from
// charmbracelet/bubbles/help.
package ui
