// Package audio provides the beep-based audio transport driven by the
// playback session.
package audio

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/app/playback"
)

// Transport errors
var (
	ErrNotLoaded   = errors.New("no source loaded")
	ErrUnsupported = errors.New("audio output is not supported in this build")
	ErrClosed      = errors.New("transport closed")
)

// output is the sink the decoded stream is mixed into.
type output interface {
	Init(sr beep.SampleRate) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// Config represents transport configuration.
type Config struct {
	SampleRate   beep.SampleRate // Output sample rate
	TickInterval time.Duration   // Interval between time updates while playing
	HTTPClient   *http.Client
}

// loaded is the decoded source of one load token.
type loaded struct {
	token   uint64
	src     *source
	ctrl    *beep.Ctrl
	volume  *effects.Volume
	started bool
}

// Transport plays one source at a time through the output.
type Transport struct {
	mu sync.Mutex

	out        output
	config     Config
	outputInit bool

	token  uint64
	cancel context.CancelFunc // Cancels the current load and its ticker
	cur    *loaded
	level  float64

	events chan playback.TransportEvent
	done   chan struct{}
	closed bool
}

var _ playback.Transport = (*Transport)(nil)

// New creates a transport on the system audio output.
func New(config Config) *Transport {
	return newTransport(config, newSpeakerOutput())
}

func newTransport(config Config, out output) *Transport {
	if config.SampleRate <= 0 {
		config.SampleRate = beep.SampleRate(44100)
	}
	if config.TickInterval <= 0 {
		config.TickInterval = 250 * time.Millisecond
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return &Transport{
		out:    out,
		config: config,
		level:  1,
		events: make(chan playback.TransportEvent, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the transport event channel.
func (t *Transport) Events() <-chan playback.TransportEvent {
	return t.events
}

// Load replaces the current source. Local files are decoded before Load
// returns; remote streams decode in the background and report CanPlay or
// Error tagged with src.Token.
func (t *Transport) Load(src playback.Source) error {
	if src.Locator == "" {
		return errors.New("empty locator")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	t.unloadLocked()

	ctx, cancel := context.WithCancel(context.Background())
	t.token = src.Token
	t.cancel = cancel

	zlog.Debug().Msgf("transport load: token=%d, locator=%s", src.Token, src.Locator)
	if !isRemote(src.Locator) {
		s, err := open(ctx, t.config.HTTPClient, src.Locator)
		if err != nil {
			return err
		}
		t.installLocked(ctx, src.Token, s)
		return nil
	}

	go t.decode(ctx, src)
	return nil
}

func (t *Transport) decode(ctx context.Context, src playback.Source) {
	s, err := open(ctx, t.config.HTTPClient, src.Locator)
	if err != nil {
		if ctx.Err() == nil {
			t.emit(playback.TransportEvent{Type: playback.TransportError, Token: src.Token, Err: err})
		}
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ctx.Err() != nil || t.token != src.Token {
		s.stream.Close()
		return
	}
	t.installLocked(ctx, src.Token, s)
}

// installLocked builds the output chain for s and announces it.
// Must be called with lock held.
func (t *Transport) installLocked(ctx context.Context, token uint64, s *source) {
	resampled := beep.Resample(4, s.format.SampleRate, t.config.SampleRate, s.stream)
	ctrl := &beep.Ctrl{Streamer: resampled, Paused: true}
	vol := &effects.Volume{Streamer: ctrl, Base: 2}
	applyLevel(vol, t.level)
	t.cur = &loaded{token: token, src: s, ctrl: ctrl, volume: vol}

	hasLength := s.stream.Len() > 0
	go func() {
		if hasLength {
			t.emit(playback.TransportEvent{Type: playback.TransportLoadedMetadata, Token: token})
		}
		t.emit(playback.TransportEvent{Type: playback.TransportCanPlay, Token: token})
		t.tick(ctx, token)
	}()
}

// tick reports the position while the source of token is playing.
func (t *Transport) tick(ctx context.Context, token uint64) {
	ticker := time.NewTicker(t.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.isPlaying(token) {
				continue
			}
			t.emit(playback.TransportEvent{Type: playback.TransportTimeUpdate, Token: token, Position: t.Position()})
		}
	}
}

func (t *Transport) isPlaying(token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil || t.cur.token != token || !t.cur.started {
		return false
	}
	t.out.Lock()
	defer t.out.Unlock()
	return !t.cur.ctrl.Paused
}

// Play starts or resumes the loaded source.
func (t *Transport) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil {
		return ErrNotLoaded
	}
	if !t.outputInit {
		if err := t.out.Init(t.config.SampleRate); err != nil {
			return errors.Wrap(err, "failed to initialize audio output")
		}
		t.outputInit = true
	}

	cur := t.cur
	if !cur.started {
		token := cur.token
		cur.started = true
		t.out.Play(beep.Seq(cur.volume, beep.Callback(func() {
			// Runs on the output goroutine with its lock held
			go t.ended(token)
		})))
	}

	t.out.Lock()
	cur.ctrl.Paused = false
	t.out.Unlock()
	return nil
}

func (t *Transport) ended(token uint64) {
	t.mu.Lock()
	current := t.cur != nil && t.cur.token == token
	t.mu.Unlock()

	if current {
		zlog.Debug().Msgf("transport ended: token=%d", token)
		t.emit(playback.TransportEvent{Type: playback.TransportEnded, Token: token})
	}
}

// Pause pauses the loaded source.
func (t *Transport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil {
		return
	}
	t.out.Lock()
	t.cur.ctrl.Paused = true
	t.out.Unlock()
}

// Seek moves the loaded source to pos, clamped to its length.
func (t *Transport) Seek(pos time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil {
		return ErrNotLoaded
	}

	stream := t.cur.src.stream
	n := t.cur.src.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if length := stream.Len(); length > 0 && n >= length {
		n = length - 1
	}

	t.out.Lock()
	defer t.out.Unlock()
	if err := stream.Seek(n); err != nil {
		return errors.Wrap(err, "seek failed")
	}
	return nil
}

// SetVolume sets the output level in [0, 1]. The level also applies to
// sources loaded later.
func (t *Transport) SetVolume(level float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = math.Max(0, math.Min(1, level))
	if t.cur == nil {
		return
	}
	t.out.Lock()
	applyLevel(t.cur.volume, t.level)
	t.out.Unlock()
}

// Position returns the playback position of the loaded source.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil {
		return 0
	}
	t.out.Lock()
	pos := t.cur.src.stream.Position()
	t.out.Unlock()
	return t.cur.src.format.SampleRate.D(pos)
}

// Duration returns the length of the loaded source when it is known.
func (t *Transport) Duration() (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur == nil {
		return 0, false
	}
	length := t.cur.src.stream.Len()
	if length <= 0 {
		return 0, false
	}
	return t.cur.src.format.SampleRate.D(length), true
}

// Close stops playback and releases the loaded source.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	t.unloadLocked()
	close(t.done)
}

func (t *Transport) unloadLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.cur == nil {
		return
	}
	if t.cur.started {
		t.out.Clear()
	}
	if err := t.cur.src.stream.Close(); err != nil {
		zlog.Debug().Err(err).Msgf("failed to close source: token=%d", t.cur.token)
	}
	t.cur = nil
}

// emit delivers an event unless the transport is closed. Time updates are
// dropped when the consumer falls behind.
func (t *Transport) emit(ev playback.TransportEvent) {
	if ev.Type == playback.TransportTimeUpdate {
		select {
		case t.events <- ev:
		default:
		}
		return
	}
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

// applyLevel maps a linear level onto the exponential volume effect.
func applyLevel(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}
