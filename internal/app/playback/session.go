package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/app/catalog"
	"github.com/osa030/syncin/internal/domain/track"
)

// Default timings
const (
	DefaultLoadTimeout    = 15 * time.Second
	DefaultFailureBackoff = 2500 * time.Millisecond
)

// Catalog is the track sequence the session advances through.
type Catalog interface {
	Advance(dir catalog.Direction) (*track.Track, bool)
	Len() int
}

// MusicSource resolves remote tracks to stream locators.
type MusicSource interface {
	ResolveStream(ctx context.Context, t *track.Track) (string, error)
}

// Favorites is the favorites index consulted for the current track.
type Favorites interface {
	IsFavorite(t *track.Track) bool
	Toggle(t *track.Track) (bool, error)
}

// Config holds session configuration.
type Config struct {
	LoadTimeout    time.Duration // Upper bound for a remote track to become ready
	FailureBackoff time.Duration // Delay before auto-advancing past a failed track
	Volume         float64       // Initial volume (0..1)
	Messages       Messages
}

// Status is a snapshot of the session.
type Status struct {
	Track   *track.Track
	State   State
	Playing  bool
	Favorite bool
	Volume   float64
	Caption  Caption // Set while Failed
}

// attempt is one load of one track. A new Select supersedes it.
type attempt struct {
	gen      uint64
	track    *track.Track
	autoplay bool // Start the transport as soon as the source is ready
	err      error
	done     bool
	settled  chan struct{} // Closed on Ready, Failed or supersession

	cancel        context.CancelFunc // Cancels the stream resolution
	timerCancel   func()             // Load timeout
	backoffCancel func()             // Auto-advance after failure
}

func (a *attempt) settle(err error) {
	if a.done {
		return
	}
	a.done = true
	a.err = err
	close(a.settled)
}

func (a *attempt) stop() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.timerCancel != nil {
		a.timerCancel()
		a.timerCancel = nil
	}
	if a.backoffCancel != nil {
		a.backoffCancel()
		a.backoffCancel = nil
	}
}

// Session owns the now-playing slot and drives the transport.
type Session struct {
	mu sync.Mutex

	catalog   Catalog
	source    MusicSource
	transport Transport
	favorites Favorites
	config    Config

	current    *track.Track
	state      State
	playing    bool // Play/pause indicator
	favorite   bool // Favorite state of current
	volume     float64
	caption    Caption
	generation uint64
	attempt    *attempt

	eventCh chan Event
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a session and starts consuming transport events.
func New(config Config, cat Catalog, source MusicSource, transport Transport, favorites Favorites) *Session {
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = DefaultLoadTimeout
	}
	if config.FailureBackoff <= 0 {
		config.FailureBackoff = DefaultFailureBackoff
	}
	config.Messages = config.Messages.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		catalog:   cat,
		source:    source,
		transport: transport,
		favorites: favorites,
		config:    config,
		state:     StateIdle,
		volume:    clampVolume(config.Volume),
		eventCh:   make(chan Event, 64),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Events returns the event channel.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the current track.
func (s *Session) Current() (*track.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Track:    s.current,
		State:    s.state,
		Playing:  s.playing,
		Favorite: s.current != nil && s.favorite,
		Volume:   s.volume,
		Caption:  s.caption,
	}
}

// Select makes t the current track and starts loading it.
// Any previous load attempt is superseded: its timers and resolution are
// cancelled and its late completions are ignored.
func (s *Session) Select(t *track.Track) error {
	if t == nil {
		return ErrNoTrack
	}
	if err := t.Validate(); err != nil {
		return errors.Wrap(err, "invalid track")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.selectLocked(t, false)
	return nil
}

// Advance moves the catalog cursor and plays the track it lands on.
func (s *Session) Advance(dir catalog.Direction) (*track.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.catalog == nil {
		return nil, ErrNoTrack
	}
	t, ok := s.catalog.Advance(dir)
	if !ok {
		return nil, ErrNoTrack
	}
	s.selectLocked(t, true)
	return t, nil
}

// Play starts playback. On a track that is still resolving it waits until
// the track is ready or failed, the attempt is superseded, or ctx is done.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()

	switch s.state {
	case StateIdle:
		s.mu.Unlock()
		return ErrNoTrack
	case StatePlaying:
		s.mu.Unlock()
		return nil
	case StateReady, StatePaused:
		err := s.startLocked()
		s.mu.Unlock()
		return err
	case StateFailed:
		err := s.attempt.err
		s.mu.Unlock()
		return err
	}

	// Resolving
	a := s.attempt
	a.autoplay = true
	s.playing = true
	s.sendEventLocked(Event{
		Type:    EventLoading,
		Track:   s.current,
		State:   s.state,
		Playing: s.playing,
	})
	s.mu.Unlock()

	select {
	case <-a.settled:
		s.mu.Lock()
		defer s.mu.Unlock()
		return a.err
	case <-ctx.Done():
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.attempt == a && !a.done {
			a.autoplay = false
			s.playing = false
			s.sendStateLocked()
		}
		return ctx.Err()
	}
}

// Pause pauses playback. It is a no-op when already paused.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePlaying:
		s.transport.Pause()
		s.playing = false
		s.setStateLocked(StatePaused)
		return nil
	case StatePaused:
		return nil
	case StateResolving:
		// Withdraw a pending play request.
		if s.attempt.autoplay {
			s.attempt.autoplay = false
			s.playing = false
			s.sendStateLocked()
		}
		return nil
	default:
		return ErrNotPlaying
	}
}

// Toggle plays or pauses based on the play/pause indicator.
func (s *Session) Toggle(ctx context.Context) error {
	s.mu.Lock()
	playing := s.playing
	s.mu.Unlock()

	if playing {
		return s.Pause()
	}
	return s.Play(ctx)
}

// Seek moves the playback position. It has no effect until the transport is
// ready.
func (s *Session) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.loaded() {
		return nil
	}
	if pos < 0 {
		pos = 0
	}
	if err := s.transport.Seek(pos); err != nil {
		return errors.Wrapf(err, "failed to seek to %s", pos)
	}
	return nil
}

// SetVolume sets the volume (clamped to 0..1). The last requested value is
// applied when the transport becomes ready.
func (s *Session) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = clampVolume(level)
	if s.state.loaded() {
		s.transport.SetVolume(s.volume)
	}
}

// Volume returns the requested volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// ToggleFavorite flips the favorite state of the current track.
func (s *Session) ToggleFavorite() (bool, error) {
	s.mu.Lock()
	t := s.current
	s.mu.Unlock()

	if t == nil {
		return false, ErrNoTrack
	}
	if s.favorites == nil {
		return false, errors.New("favorites are not available")
	}

	on, err := s.favorites.Toggle(t)
	if err != nil {
		return on, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == t {
		s.favorite = on
		s.sendFavoriteLocked()
	}
	return on, nil
}

// RefreshFavorite re-reads the favorite state of the current track from the
// index and emits EventFavoriteChanged if it changed.
func (s *Session) RefreshFavorite() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.closed {
		return false
	}
	on := s.favoriteOf(s.current)
	if on != s.favorite {
		s.favorite = on
		s.sendFavoriteLocked()
	}
	return on
}

// IsFavorite reports the favorite state of the current track.
func (s *Session) IsFavorite() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.favorite
}

func (s *Session) favoriteOf(t *track.Track) bool {
	if s.favorites == nil {
		return t.IsFavorite
	}
	return s.favorites.IsFavorite(t)
}

func (s *Session) sendFavoriteLocked() {
	s.sendEventLocked(Event{
		Type:    EventFavoriteChanged,
		Track:   s.current,
		State:   s.state,
		Playing: s.playing,
	})
}

// Close stops the session and closes the event channel.
func (s *Session) Close() {
	s.cancel()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.attempt != nil {
		s.attempt.stop()
		s.attempt.settle(ErrClosed)
	}
	if s.state == StatePlaying {
		s.transport.Pause()
	}
	s.closed = true
	close(s.eventCh)
}

// selectLocked supersedes the live attempt and starts a new one for t.
// Must be called with lock held.
func (s *Session) selectLocked(t *track.Track, autoplay bool) {
	if s.attempt != nil {
		s.attempt.stop()
		s.attempt.settle(ErrSuperseded)
	}
	if s.state == StatePlaying {
		s.transport.Pause()
	}

	s.generation++
	a := &attempt{
		gen:      s.generation,
		track:    t,
		autoplay: autoplay,
		settled:  make(chan struct{}),
	}
	s.attempt = a
	s.current = t
	s.playing = autoplay
	s.caption = Caption{}
	s.favorite = s.favoriteOf(t)

	zlog.Info().Msgf("track selected: id=%s provider=%s generation=%d", t.ID, t.Provider(), a.gen)
	s.sendEventLocked(Event{
		Type:    EventTrackChanged,
		Track:   t,
		State:   s.state,
		Playing: s.playing,
	})

	switch src := t.Source.(type) {
	case track.Local:
		if err := s.transport.Load(Source{Token: a.gen, Locator: src.Path}); err != nil {
			s.failLocked(ErrTransport, err)
			return
		}
		s.readyLocked(a)

	case track.Remote:
		s.setStateLocked(StateResolving)
		if s.source == nil {
			s.failLocked(ErrUpstreamUnavailable, errors.New("no music source configured"))
			return
		}
		ctx, cancel := context.WithCancel(s.ctx)
		a.cancel = cancel
		gen := a.gen
		a.timerCancel = startTimer(s.config.LoadTimeout, func() {
			s.onTimeout(gen)
		})
		go s.resolve(ctx, gen, t)

	default:
		s.failLocked(ErrUnplayable, errors.Newf("track %s has no source", t.ID))
	}
}

// resolve requests the stream locator for t and hands it to the transport.
func (s *Session) resolve(ctx context.Context, gen uint64, t *track.Track) {
	locator, err := s.source.ResolveStream(ctx, t)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != StateResolving {
		zlog.Debug().Msgf("stale resolution dropped: id=%s generation=%d", t.ID, gen)
		return
	}
	if err != nil {
		s.failLocked(classifyResolveError(err), err)
		return
	}
	if locator == "" {
		s.failLocked(ErrUnplayable, nil)
		return
	}
	if err := s.transport.Load(Source{Token: gen, Locator: locator}); err != nil {
		s.failLocked(ErrTransport, err)
	}
}

func (s *Session) onTimeout(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != StateResolving {
		return
	}
	s.failLocked(ErrResolutionTimeout, nil)
}

func (s *Session) onBackoff(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation || s.state != StateFailed {
		return
	}
	t, ok := s.catalog.Advance(catalog.Next)
	if !ok {
		return
	}
	zlog.Info().Msgf("auto-advancing after failure: next=%s", t.ID)
	s.selectLocked(t, true)
}

// readyLocked marks the attempt's source as playable.
// Must be called with lock held.
func (s *Session) readyLocked(a *attempt) {
	if a.timerCancel != nil {
		a.timerCancel()
		a.timerCancel = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	s.transport.SetVolume(s.volume)
	s.setStateLocked(StateReady)

	var err error
	if a.autoplay {
		err = s.startLocked()
	}
	a.settle(err)
}

// startLocked starts the transport.
// Must be called with lock held.
func (s *Session) startLocked() error {
	if err := s.transport.Play(); err != nil {
		s.playing = false
		s.sendStateLocked()
		zlog.Warn().Msgf("transport rejected play: id=%s error=%v", s.current.ID, err)
		return errors.Mark(errors.Wrap(err, "transport rejected play"), ErrTransport)
	}
	s.playing = true
	s.setStateLocked(StatePlaying)
	return nil
}

// failLocked moves the current attempt to Failed and schedules the
// auto-advance when there is somewhere else to go.
// Must be called with lock held.
func (s *Session) failLocked(kind error, cause error) {
	a := s.attempt
	a.stop()

	var err error
	if cause != nil {
		err = errors.Mark(errors.Wrapf(cause, "track %s", a.track.ID), kind)
	} else {
		err = errors.Wrapf(kind, "track %s", a.track.ID)
	}

	s.playing = false
	s.caption = s.config.Messages.caption(kind, a.track)
	s.setStateLocked(StateFailed)
	s.sendEventLocked(Event{
		Type:    EventFailed,
		Track:   a.track,
		State:   s.state,
		Err:     err,
		Caption: s.caption,
	})
	zlog.Warn().Msgf("track failed: id=%s provider=%s error=%v", a.track.ID, a.track.Provider(), err)
	a.settle(err)

	if s.catalog != nil && s.catalog.Len() > 1 {
		gen := a.gen
		a.backoffCancel = startTimer(s.config.FailureBackoff, func() {
			s.onBackoff(gen)
		})
	}
}

func (s *Session) run() {
	defer close(s.done)

	events := s.transport.Events()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleTransportEvent(ev)
		}
	}
}

func (s *Session) handleTransportEvent(ev TransportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.attempt == nil || ev.Token != s.generation {
		return
	}
	a := s.attempt

	switch ev.Type {
	case TransportCanPlay:
		if s.state == StateResolving {
			s.readyLocked(a)
		}

	case TransportError:
		if s.state != StateFailed {
			s.failLocked(ErrTransport, ev.Err)
		}

	case TransportTimeUpdate:
		total, known := s.transport.Duration()
		s.sendProgressLocked(NewProgress(ev.Position, total, known))

	case TransportLoadedMetadata:
		total, known := s.transport.Duration()
		s.sendProgressLocked(NewProgress(s.transport.Position(), total, known))

	case TransportEnded:
		s.playing = false
		if s.catalog == nil {
			s.setStateLocked(StateReady)
			return
		}
		t, ok := s.catalog.Advance(catalog.Next)
		if !ok {
			s.setStateLocked(StateReady)
			return
		}
		s.selectLocked(t, true)
	}
}

// setStateLocked changes the state and emits EventStateChanged.
// Must be called with lock held.
func (s *Session) setStateLocked(state State) {
	s.state = state
	s.sendStateLocked()
}

func (s *Session) sendStateLocked() {
	s.sendEventLocked(Event{
		Type:    EventStateChanged,
		Track:   s.current,
		State:   s.state,
		Playing: s.playing,
	})
}

func (s *Session) sendProgressLocked(p Progress) {
	s.sendEventLocked(Event{
		Type:     EventProgress,
		Track:    s.current,
		State:    s.state,
		Playing:  s.playing,
		Progress: p,
	})
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (s *Session) sendEventLocked(e Event) {
	if s.closed {
		return
	}
	e.Favorite = s.current != nil && s.favorite
	select {
	case s.eventCh <- e:
	default:
		// Channel full, drop event
	}
}

// startTimer calls callback after duration unless the returned cancel
// function is called first.
func startTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.NewTimer(duration)

	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			callback()
		}
	}()

	return cancel
}

func clampVolume(level float64) float64 {
	switch {
	case level < 0:
		return 0
	case level > 1:
		return 1
	default:
		return level
	}
}
