//go:build (linux && cgo) || windows || darwin

package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

// speakerOutput plays through the system speaker.
type speakerOutput struct{}

func newSpeakerOutput() output {
	return speakerOutput{}
}

func (speakerOutput) Init(sr beep.SampleRate) error {
	return speaker.Init(sr, sr.N(time.Second/10))
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
