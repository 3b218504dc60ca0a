package playback

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/syncin/internal/domain/track"
)

// Session errors
var (
	ErrNoTrack    = errors.New("no track selected")
	ErrNotPlaying = errors.New("not playing")
	ErrSuperseded = errors.New("load attempt superseded")
	ErrClosed     = errors.New("session closed")
)

// Load failures. All of them are recovered inside the session.
var (
	ErrResolutionTimeout   = errors.New("resolution timed out")
	ErrTransport           = errors.New("transport error")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnplayable          = errors.New("unplayable")
)

// FailureKind returns the load failure class of err, or nil when err is not
// a load failure.
func FailureKind(err error) error {
	for _, kind := range []error{ErrResolutionTimeout, ErrTransport, ErrUnplayable, ErrUpstreamUnavailable} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// classifyResolveError maps a MusicSource error onto the load failure classes.
func classifyResolveError(err error) error {
	if errors.Is(err, track.ErrUnplayable) {
		return ErrUnplayable
	}
	return ErrUpstreamUnavailable
}

// Messages holds the failure captions. Each caption may contain one %s,
// replaced by the provider display name.
type Messages struct {
	Timeout    string
	Transport  string
	Upstream   string
	Unplayable string
	Remedy     string
}

// DefaultMessages returns the built-in captions.
func DefaultMessages() Messages {
	return Messages{
		Timeout:    "%s took too long to respond",
		Transport:  "Could not play this %s stream",
		Upstream:   "%s is unavailable right now",
		Unplayable: "No playable audio on %s for this track",
		Remedy:     "Try searching for a different song",
	}
}

// withDefaults fills empty captions.
func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	if m.Timeout == "" {
		m.Timeout = d.Timeout
	}
	if m.Transport == "" {
		m.Transport = d.Transport
	}
	if m.Upstream == "" {
		m.Upstream = d.Upstream
	}
	if m.Unplayable == "" {
		m.Unplayable = d.Unplayable
	}
	if m.Remedy == "" {
		m.Remedy = d.Remedy
	}
	return m
}

// Caption is the short failure text shown in place of track metadata.
type Caption struct {
	Text   string
	Remedy string
}

// caption builds the caption for a failure of kind on t.
func (m Messages) caption(kind error, t *track.Track) Caption {
	var format string
	switch kind {
	case ErrResolutionTimeout:
		format = m.Timeout
	case ErrTransport:
		format = m.Transport
	case ErrUnplayable:
		format = m.Unplayable
	default:
		format = m.Upstream
	}

	text := format
	if strings.Contains(format, "%s") {
		text = fmt.Sprintf(format, providerDisplayName(t))
	}
	return Caption{Text: text, Remedy: m.Remedy}
}

func providerDisplayName(t *track.Track) string {
	if t == nil {
		return "source"
	}
	switch t.Provider() {
	case track.ProviderLocal:
		return "local file"
	case track.ProviderYouTube:
		return "YouTube"
	case track.ProviderAudius:
		return "Audius"
	case track.ProviderSpotify:
		return "Spotify"
	default:
		return "source"
	}
}
