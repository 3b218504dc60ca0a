//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// Available indicates whether audio playback is supported in this build.
// Audio output on Linux requires cgo.
const Available = false

// stubOutput refuses to start. Sources still decode, so the player reports
// a transport error instead of hanging.
type stubOutput struct {
	mu sync.Mutex
}

func newSpeakerOutput() output {
	return &stubOutput{}
}

func (*stubOutput) Init(beep.SampleRate) error { return ErrUnsupported }
func (*stubOutput) Play(beep.Streamer)         {}
func (*stubOutput) Clear()                     {}
func (o *stubOutput) Lock()                    { o.mu.Lock() }
func (o *stubOutput) Unlock()                  { o.mu.Unlock() }
