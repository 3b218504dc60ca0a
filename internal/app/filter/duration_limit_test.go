package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/syncin/internal/domain/track"
)

func youtubeTrack(id, title, artist string, seconds int, verified bool) *track.Track {
	return &track.Track{
		ID:          id,
		Title:       title,
		Artist:      artist,
		DurationSec: seconds,
		Source:      track.Remote{Provider: track.ProviderYouTube, Ref: id, Verified: verified},
	}
}

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		minSeconds   int
		maxSeconds   int
		duration     int
		shouldReject bool
		description  string
	}{
		{
			name:         "Within limits",
			minSeconds:   60,
			maxSeconds:   900,
			duration:     213,
			shouldReject: false,
			description:  "Should accept track within min/max limits",
		},
		{
			name:         "Too short",
			minSeconds:   60,
			maxSeconds:   900,
			duration:     45,
			shouldReject: true,
			description:  "Should reject shorts",
		},
		{
			name:         "Too long",
			minSeconds:   60,
			maxSeconds:   900,
			duration:     3600,
			shouldReject: true,
			description:  "Should reject hour long mixes",
		},
		{
			name:         "Exact min",
			minSeconds:   60,
			maxSeconds:   900,
			duration:     60,
			shouldReject: false,
			description:  "Should accept track exactly at min",
		},
		{
			name:         "Exact max",
			minSeconds:   60,
			maxSeconds:   900,
			duration:     900,
			shouldReject: false,
			description:  "Should accept track exactly at max",
		},
		{
			name:         "Unknown duration",
			minSeconds:   60,
			maxSeconds:   900,
			duration:     0,
			shouldReject: true,
			description:  "Should reject live streams without duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			// Manually configuring for test by setting config directly
			f.config = &DurationLimitConfig{
				MinSeconds: tt.minSeconds,
				MaxSeconds: tt.maxSeconds,
			}

			result := f.Check(context.Background(), youtubeTrack("v", "Song", "Artist", tt.duration, true), nil)

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duration_limit_exceeded", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
	}{
		{
			name: "Valid config",
			settings: map[string]any{
				"min_seconds": 30,
				"max_seconds": 600,
			},
			wantErr: false,
		},
		{
			name: "Valid float values from yaml",
			settings: map[string]any{
				"min_seconds": 30.0,
				"max_seconds": 600.0,
			},
			wantErr: false,
		},
		{
			name: "Invalid min > max",
			settings: map[string]any{
				"min_seconds": 1000,
				"max_seconds": 600,
			},
			wantErr: true,
		},
		{
			name: "Invalid negative min",
			settings: map[string]any{
				"min_seconds": -1,
			},
			wantErr: true,
		},
		{
			name: "Min above default max",
			settings: map[string]any{
				"min_seconds": 1200,
			},
			wantErr: true,
		},
		{
			name:     "Empty settings (uses defaults)",
			settings: map[string]any{},
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			err := f.ValidateConfig(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationLimitFilter_Defaults(t *testing.T) {
	f := NewDurationLimitFilter()
	assert.NoError(t, f.ValidateConfig(nil))
	assert.Equal(t, &DurationLimitConfig{MinSeconds: 60, MaxSeconds: 900}, f.config)
}

func TestDurationLimitFilter_AppliesTo(t *testing.T) {
	f := NewDurationLimitFilter()
	assert.True(t, f.AppliesTo(track.ProviderYouTube))
	assert.True(t, f.AppliesTo(track.ProviderAudius))
	assert.False(t, f.AppliesTo(track.ProviderSpotify))
	assert.False(t, f.AppliesTo(track.ProviderLocal))
}
