package track

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_KindAndProvider(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		kind     Kind
		provider Provider
	}{
		{
			name:     "local file",
			source:   Local{Path: "music/song.mp3"},
			kind:     KindLocal,
			provider: ProviderLocal,
		},
		{
			name:     "youtube video",
			source:   Remote{Provider: ProviderYouTube, Ref: "dQw4w9WgXcQ"},
			kind:     KindRemote,
			provider: ProviderYouTube,
		},
		{
			name:     "audius track",
			source:   Remote{Provider: ProviderAudius, Ref: "D7KyD"},
			kind:     KindRemote,
			provider: ProviderAudius,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{ID: "id", Source: tt.source}
			assert.Equal(t, tt.kind, trk.Kind())
			assert.Equal(t, tt.provider, trk.Provider())
			assert.Equal(t, tt.kind == KindLocal, trk.IsLocal())
		})
	}
}

func TestTrack_Validate(t *testing.T) {
	tests := []struct {
		name    string
		track   Track
		wantErr bool
	}{
		{
			name:  "valid local track",
			track: Track{ID: "1", DurationSec: 262, Source: Local{Path: "a.mp3"}},
		},
		{
			name:  "valid remote track",
			track: Track{ID: "abc", Source: Remote{Provider: ProviderAudius, Ref: "abc"}},
		},
		{
			name:    "empty id",
			track:   Track{Source: Local{Path: "a.mp3"}},
			wantErr: true,
		},
		{
			name:    "negative duration",
			track:   Track{ID: "1", DurationSec: -1, Source: Local{Path: "a.mp3"}},
			wantErr: true,
		},
		{
			name:    "local without path",
			track:   Track{ID: "1", Source: Local{}},
			wantErr: true,
		},
		{
			name:    "remote claiming local provider",
			track:   Track{ID: "1", Source: Remote{Provider: ProviderLocal}},
			wantErr: true,
		},
		{
			name:    "missing source",
			track:   Track{ID: "1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.track.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrack_Matches(t *testing.T) {
	trk := &Track{Title: "Blinding Lights", Artist: "The Weeknd", Album: "After Hours"}

	assert.True(t, trk.Matches("blinding"))
	assert.True(t, trk.Matches("WEEKND"))
	assert.True(t, trk.Matches(" after "))
	assert.False(t, trk.Matches("adele"))
	assert.False(t, trk.Matches("   "))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" YouTube ")
	assert.NoError(t, err)
	assert.Equal(t, ProviderYouTube, p)

	_, err = ParseProvider("soundcloud")
	assert.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{262, "4:22"},
		{3600, "60:00"},
		{59.9, "0:59"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in), "FormatTime(%v)", tt.in)
	}
}
