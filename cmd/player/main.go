// Package main provides the terminal player entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/app/catalog"
	"github.com/osa030/syncin/internal/app/favorites"
	"github.com/osa030/syncin/internal/app/player"
	"github.com/osa030/syncin/internal/app/playback"
	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/audio"
	"github.com/osa030/syncin/internal/infra/config"
	"github.com/osa030/syncin/internal/infra/library"
	"github.com/osa030/syncin/internal/infra/logger"
	"github.com/osa030/syncin/internal/infra/remote"
	"github.com/osa030/syncin/internal/infra/store"
	"github.com/osa030/syncin/internal/ui"
)

var (
	app        = kingpin.New("syncin", "syncin terminal music player")
	configPath = app.Flag("config", "Path to config file (default: built-in defaults)").Default("").String()
	server     = app.Flag("server", "Library server URL (overrides player.server_url)").String()
	musicDir   = app.Flag("music", "Local music directory (overrides player.library_dir)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: user cache directory)").String()

	// tui command (default)
	tuiCmd = app.Command("tui", "Start the interactive player (default)").Default()

	// search command
	searchCmd   = app.Command("search", "Search local music, then the library server")
	searchQuery = searchCmd.Arg("query", "Search query").Required().String()

	// favorites command
	favoritesCmd = app.Command("favorites", "List remote favorites")

	// playlists command
	playlistsCmd   = app.Command("playlists", "List featured playlists")
	playlistsLimit = playlistsCmd.Flag("limit", "Number of playlists").Default("12").Int()

	// probe command
	probeCmd     = app.Command("probe", "Check whether a YouTube video can be streamed")
	probeVideoID = probeCmd.Arg("video-id", "YouTube video ID or URL").Required().String()
)

// deps holds the wired player components.
type deps struct {
	remote    *remote.Client
	favorites *favorites.Index
	transport *audio.Transport
	session   *playback.Session
	player    *player.Player
	closers   []io.Closer
}

func (d *deps) Close() {
	if d.session != nil {
		d.session.Close()
	}
	if d.transport != nil {
		d.transport.Close()
	}
	for _, c := range d.closers {
		if err := c.Close(); err != nil {
			zlog.Warn().Msgf("close failed: %v", err)
		}
	}
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := initLogger(command == tuiCmd.FullCommand()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Player.ServerURL = *server
	}
	if *musicDir != "" {
		cfg.Player.LibraryDir = *musicDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case tuiCmd.FullCommand():
		err = runTUI(ctx, cfg)
	case searchCmd.FullCommand():
		err = runSearch(ctx, cfg, *searchQuery)
	case favoritesCmd.FullCommand():
		err = runFavorites(cfg)
	case playlistsCmd.FullCommand():
		err = runPlaylists(ctx, cfg, *playlistsLimit)
	case probeCmd.FullCommand():
		err = runProbe(ctx, cfg, *probeVideoID)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger keeps the terminal clean for the TUI by logging to a file.
func initLogger(tui bool) error {
	cfg := logger.Config{Output: "stderr", Level: "warn", App: "player"}
	if *verbose {
		cfg.Level = "debug"
	}

	path := *logfile
	if path == "" && tui {
		dir, err := os.UserCacheDir()
		if err != nil {
			return errors.Wrap(err, "failed to resolve user cache directory")
		}
		path = filepath.Join(dir, "syncin", "player.log")
		if !*verbose {
			cfg.Level = "info"
		}
	}
	if path != "" {
		cfg.Output = "file"
		cfg.File = path
	}
	return logger.Init(cfg)
}

// wire builds the player from configuration.
func wire(cfg *config.Config) (*deps, error) {
	d := &deps{}

	client, err := remote.New(remote.Config{
		ServerURL: cfg.Player.ServerURL,
		APIToken:  cfg.Player.APIToken,
	})
	if err != nil {
		return nil, err
	}
	d.remote = client

	favStore, err := openFavoritesStore(cfg, d)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.favorites = favorites.New(favStore)
	if err := d.favorites.Load(); err != nil {
		d.Close()
		return nil, err
	}

	local, err := library.Scan(cfg.Player.LibraryDir)
	if err != nil {
		zlog.Warn().Msgf("local library unavailable: dir=%s, error=%v", cfg.Player.LibraryDir, err)
	}

	cat := catalog.New()
	d.transport = audio.New(audio.Config{})
	d.session = playback.New(playback.Config{
		LoadTimeout:    cfg.LoadTimeout(),
		FailureBackoff: cfg.FailureBackoff(),
		Volume:         cfg.Player.Volume,
		Messages: playback.Messages{
			Timeout:    cfg.Messages.LoadTimeout,
			Transport:  cfg.Messages.TransportError,
			Upstream:   cfg.Messages.Upstream,
			Unplayable: cfg.Messages.Unplayable,
			Remedy:     cfg.Messages.Suggestion,
		},
	}, cat, client, d.transport, d.favorites)
	d.player = player.New(local, client, d.favorites, cat, d.session)

	zlog.Info().Msgf("player wired: server=%s, local_tracks=%d, favorites=%d, audio=%t",
		client.ServerURL(), len(local), d.favorites.Len(), audio.Available)
	return d, nil
}

func openFavoritesStore(cfg *config.Config, d *deps) (favorites.Store, error) {
	path, err := cfg.FavoritesPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create favorites directory for %s", path)
	}

	switch cfg.Player.Favorites.Store {
	case "sqlite":
		db, err := store.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db)
		return db, nil
	default:
		return store.NewJSONFile(path), nil
	}
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	d, err := wire(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	zlog.Info().Msgf("player session started: id=%s", uuid.NewString())
	if !audio.Available {
		zlog.Warn().Msg("audio output is not available in this build; tracks will fail to play")
	}

	p := tea.NewProgram(ui.NewModel(ctx, d.player), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "error running TUI")
	}
	return nil
}

func runSearch(ctx context.Context, cfg *config.Config, query string) error {
	d, err := wire(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	listing, err := d.player.Search(ctx, query)
	if err != nil {
		return err
	}
	fmt.Println(listing.Title)
	printTracks(listing.Tracks)
	return nil
}

func runFavorites(cfg *config.Config) error {
	d := &deps{}
	defer d.Close()

	favStore, err := openFavoritesStore(cfg, d)
	if err != nil {
		return err
	}
	idx := favorites.New(favStore)
	if err := idx.Load(); err != nil {
		return err
	}

	if idx.Len() == 0 {
		fmt.Println("No favorites yet")
		return nil
	}
	printTracks(idx.Tracks())
	return nil
}

func runPlaylists(ctx context.Context, cfg *config.Config, limit int) error {
	client, err := remote.New(remote.Config{ServerURL: cfg.Player.ServerURL, APIToken: cfg.Player.APIToken})
	if err != nil {
		return err
	}

	lists, err := client.FeaturedPlaylists(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tNAME\tTRACKS\tOWNER")
	for _, pl := range lists {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", pl.ID, pl.Provider, pl.Name, pl.TrackCount, pl.Owner)
	}
	return w.Flush()
}

func runProbe(ctx context.Context, cfg *config.Config, videoID string) error {
	client, err := remote.New(remote.Config{ServerURL: cfg.Player.ServerURL, APIToken: cfg.Player.APIToken})
	if err != nil {
		return err
	}

	result, err := client.Probe(ctx, videoID)
	if err != nil {
		return err
	}

	if !result.Available {
		fmt.Printf("✗ %s is not available: %s\n", result.VideoID, result.Error)
		return nil
	}
	fmt.Printf("✓ %s\n", result.VideoID)
	fmt.Printf("  Title:  %s\n", result.Title)
	fmt.Printf("  Author: %s\n", result.Author)
	fmt.Printf("  Length: %s\n", track.FormatTime(float64(result.DurationSec)))
	return nil
}

func printTracks(tracks []*track.Track) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTITLE\tARTIST\tLENGTH\tSOURCE\tFAV")
	for i, t := range tracks {
		fav := ""
		if t.IsFavorite {
			fav = "♥"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, t.Title, t.Artist, track.FormatTime(float64(t.DurationSec)), t.Provider(), fav)
	}
	_ = w.Flush()
}
