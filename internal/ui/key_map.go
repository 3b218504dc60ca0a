package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the player.
type keyMap struct {
	play      key.Binding
	toggle    key.Binding
	next      key.Binding
	prev      key.Binding
	favorite  key.Binding
	favCur    key.Binding
	search    key.Binding
	home      key.Binding
	favorites key.Binding
	playlists key.Binding
	seekFwd   key.Binding
	seekBack  key.Binding
	volUp     key.Binding
	volDown   key.Binding
	back      key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		play:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		prev:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		favorite:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		favCur:    key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "favorite playing")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		home:      key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "my music")),
		favorites: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "favorites")),
		playlists: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "playlists")),
		seekFwd:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+10s")),
		seekBack:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-10s")),
		volUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.toggle, k.next, k.search, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.play, k.toggle, k.next, k.prev},
		{k.seekBack, k.seekFwd, k.volDown, k.volUp},
		{k.favorite, k.favCur, k.search},
		{k.home, k.favorites, k.playlists},
		{k.back, k.help, k.quit},
	}
}
