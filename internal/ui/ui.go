package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/osa030/syncin/internal/app/player"
	"github.com/osa030/syncin/internal/app/playback"
	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

const (
	seekStep       = 10 * time.Second
	volumeStep     = 0.1
	playlistLimit  = 20
	reservedHeight = 9 // Now-playing bar, status line, help and search input
)

// Mode is what the main pane shows.
type Mode int

const (
	ModeTracks    Mode = iota // A track listing
	ModeSearch                // Track listing with the search input focused
	ModePlaylists             // Featured playlists
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	player  *player.Player
	session *playback.Session

	mode      Mode
	width     int
	height    int
	tracks    list.Model
	playlists list.Model
	input     textinput.Model
	help      help.Model
	bar       progress.Model
	keys      keyMap

	current  *track.Track
	favorite bool
	state    playback.State
	playing  bool
	loading  bool
	progress playback.Progress
	caption  playback.Caption
	notice   string
	err      error
}

// NewModel creates a TUI model over p, starting on p's current listing.
func NewModel(ctx context.Context, p *player.Player) *Model {
	input := textinput.New()
	input.Placeholder = "Search songs, artists, albums"
	input.Prompt = "/ "
	input.CharLimit = 120

	listing := p.Listing()
	return &Model{
		ctx:       ctx,
		player:    p,
		session:   p.Session(),
		mode:      ModeTracks,
		tracks:    newList(listing.Title, trackItems(listing.Tracks)),
		playlists: newList("Featured Playlists", nil),
		input:     input,
		help:      help.New(),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		keys:      newKeyMap(),
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

// Init starts listening to the playback session.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeSearch {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case listingMsg:
		m.err = msg.err
		m.notice = ""
		m.showListing(msg.listing)
		return m, nil

	case playlistsMsg:
		if msg.err != nil {
			m.err = msg.err
			m.notice = ""
			return m, nil
		}
		m.err = nil
		m.notice = ""
		m.playlists.SetItems(playlistItems(msg.playlists))
		m.playlists.Select(0)
		m.mode = ModePlaylists
		return m, nil

	case sessionEventMsg:
		m.applyEvent(playback.Event(msg))
		return m, m.waitForEvent()

	case sessionClosedMsg:
		return m, nil

	case actionMsg:
		m.err = msg.err
		m.notice = msg.notice
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the current pane, the now-playing bar and the help line.
func (m *Model) View() string {
	var b strings.Builder

	if m.mode == ModePlaylists {
		b.WriteString(m.playlists.View())
	} else {
		b.WriteString(m.tracks.View())
	}
	b.WriteString("\n")

	if m.mode == ModeSearch {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.notice != "":
		b.WriteString(styles.warn.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Mode returns what the main pane shows.
func (m *Model) Mode() Mode {
	return m.mode
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.back):
		m.mode = ModeTracks
		m.err = nil
		return m, nil

	case key.Matches(msg, m.keys.search):
		m.mode = ModeSearch
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.home):
		m.err = nil
		m.showListing(m.player.ShowHome())
		return m, nil

	case key.Matches(msg, m.keys.favorites):
		m.err = nil
		m.showListing(m.player.ShowFavorites())
		return m, nil

	case key.Matches(msg, m.keys.playlists):
		m.notice = "Loading playlists..."
		return m, m.fetchPlaylists()

	case key.Matches(msg, m.keys.play):
		if m.mode == ModePlaylists {
			if item, ok := m.playlists.SelectedItem().(playlistItem); ok {
				m.notice = "Opening " + item.playlist.Name + "..."
				return m, m.openPlaylist(item.playlist)
			}
			return m, nil
		}
		if len(m.tracks.Items()) == 0 {
			return m, nil
		}
		return m, m.playAt(m.tracks.Index())

	case key.Matches(msg, m.keys.toggle):
		return m, m.do(func() (string, error) {
			return "", m.player.Toggle(m.ctx)
		})

	case key.Matches(msg, m.keys.next):
		_, err := m.player.Next()
		m.err = err
		return m, nil

	case key.Matches(msg, m.keys.prev):
		_, err := m.player.Previous()
		m.err = err
		return m, nil

	case key.Matches(msg, m.keys.favorite):
		if m.mode != ModeTracks || len(m.tracks.Items()) == 0 {
			return m, nil
		}
		on, err := m.player.ToggleFavoriteAt(m.tracks.Index())
		m.reportFavorite(on, err)
		return m, nil

	case key.Matches(msg, m.keys.favCur):
		on, err := m.player.ToggleFavoriteCurrent()
		m.reportFavorite(on, err)
		return m, nil

	case key.Matches(msg, m.keys.seekFwd):
		m.err = m.session.Seek(m.progress.Elapsed + seekStep)
		return m, nil

	case key.Matches(msg, m.keys.seekBack):
		m.err = m.session.Seek(max(m.progress.Elapsed-seekStep, 0))
		return m, nil

	case key.Matches(msg, m.keys.volUp):
		m.setVolume(m.session.Volume() + volumeStep)
		return m, nil

	case key.Matches(msg, m.keys.volDown):
		m.setVolume(m.session.Volume() - volumeStep)
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.input.Blur()
		m.mode = ModeTracks
		return m, nil
	case tea.KeyEnter:
		query := m.input.Value()
		m.input.Blur()
		m.mode = ModeTracks
		m.notice = "Searching..."
		return m, m.search(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case ModePlaylists:
		m.playlists, cmd = m.playlists.Update(msg)
	default:
		m.tracks, cmd = m.tracks.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	listHeight := max(height-reservedHeight, 3)
	m.tracks.SetSize(width, listHeight)
	m.playlists.SetSize(width, listHeight)
	m.help.Width = width
	m.input.Width = max(width-4, 10)
	m.bar.Width = max(width-16, 10)
}

func (m *Model) showListing(l player.Listing) {
	m.tracks.Title = l.Title
	m.tracks.SetItems(trackItems(l.Tracks))
	m.tracks.Select(0)
	m.mode = ModeTracks
}

// refreshItems redraws the current listing, keeping the cursor.
func (m *Model) refreshItems() {
	l := m.player.Listing()
	index := m.tracks.Index()
	m.tracks.Title = l.Title
	m.tracks.SetItems(trackItems(l.Tracks))
	if index >= len(l.Tracks) {
		index = len(l.Tracks) - 1
	}
	if index >= 0 {
		m.tracks.Select(index)
	}
}

func (m *Model) reportFavorite(on bool, err error) {
	m.err = err
	if err != nil {
		return
	}
	if on {
		m.notice = "Added to favorites"
	} else {
		m.notice = "Removed from favorites"
	}
	m.refreshItems()
}

func (m *Model) setVolume(level float64) {
	m.session.SetVolume(level)
	m.notice = fmt.Sprintf("Volume %d%%", int(m.session.Volume()*100+0.5))
}

func (m *Model) applyEvent(ev playback.Event) {
	m.current = ev.Track
	m.favorite = ev.Favorite
	m.state = ev.State
	m.playing = ev.Playing

	switch ev.Type {
	case playback.EventTrackChanged:
		m.progress = playback.Progress{}
		m.caption = playback.Caption{}
		m.loading = false
	case playback.EventLoading:
		m.loading = true
	case playback.EventProgress:
		m.progress = ev.Progress
	case playback.EventFailed:
		m.caption = ev.Caption
		m.loading = false
	case playback.EventStateChanged:
		if ev.State != playback.StateResolving {
			m.loading = false
		}
	case playback.EventFavoriteChanged:
		m.refreshItems()
	}
}

func (m *Model) renderNowPlaying() string {
	if m.current == nil {
		return styles.bar.Render(styles.help.Render("Nothing playing"))
	}

	if m.state == playback.StateFailed {
		line := styles.err.Render(m.caption.Text)
		if m.caption.Remedy != "" {
			line += "\n" + styles.help.Render(m.caption.Remedy)
		}
		return styles.bar.Render(line)
	}

	icon := "⏸"
	if m.playing {
		icon = "▶"
	}
	title := fmt.Sprintf("%s %s - %s", icon, m.current.Title, artistOf(m.current))
	if m.favorite {
		title += " ♥"
	}
	var status string
	if m.loading || m.state == playback.StateResolving {
		status = " loading..."
	}
	times := fmt.Sprintf("%s / %s", m.progress.ElapsedText(), m.progress.TotalText())
	return styles.bar.Render(
		styles.playing.Render(title) + styles.help.Render(status) + "\n" +
			m.bar.ViewAs(m.progress.Percent/100) + " " + times,
	)
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.session.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg(ev)
	}
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		l, err := m.player.Search(m.ctx, query)
		return listingMsg{listing: l, err: err}
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		lists, err := m.player.FeaturedPlaylists(m.ctx, playlistLimit)
		return playlistsMsg{playlists: lists, err: err}
	}
}

func (m *Model) openPlaylist(s playlist.Summary) tea.Cmd {
	return func() tea.Msg {
		l, err := m.player.OpenPlaylist(m.ctx, s)
		if err != nil {
			return actionMsg{err: err}
		}
		return listingMsg{listing: l}
	}
}

func (m *Model) playAt(i int) tea.Cmd {
	return func() tea.Msg {
		t, err := m.player.PlayAt(m.ctx, i)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{notice: "Playing " + t.Title}
	}
}

// do runs fn off the update loop and reports its outcome.
func (m *Model) do(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		notice, err := fn()
		return actionMsg{notice: notice, err: err}
	}
}
