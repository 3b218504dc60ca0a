package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/syncin/internal/domain/track"
)

func TestDuplicateTrackFilter_SameKey(t *testing.T) {
	filter := NewDuplicateTrackFilter()
	first := youtubeTrack("track123", "Bohemian Rhapsody", "Queen", 355, true)

	result := filter.Check(
		context.Background(),
		youtubeTrack("track123", "Bohemian Rhapsody (Official Video)", "Queen Official", 360, true),
		[]*track.Track{first},
	)

	assert.False(t, result.Accepted)
	assert.Equal(t, "duplicate_track", result.Code)
}

func TestDuplicateTrackFilter_RemasterDetection(t *testing.T) {
	tests := []struct {
		name         string
		earlier      *track.Track
		candidate    *track.Track
		shouldReject bool
		description  string
	}{
		{
			name:         "Standard remaster pattern",
			earlier:      youtubeTrack("a", "Bohemian Rhapsody", "Queen", 355, true),
			candidate:    youtubeTrack("b", "Bohemian Rhapsody - 2011 Remaster", "Queen", 355, true),
			shouldReject: true,
			description:  "Should detect '- 2011 Remaster' as duplicate",
		},
		{
			name:         "Official video upload",
			earlier:      youtubeTrack("a", "Never Gonna Give You Up", "Rick Astley", 213, true),
			candidate:    youtubeTrack("b", "Never Gonna Give You Up (Official Music Video)", "Rick Astley", 213, true),
			shouldReject: true,
			description:  "Should detect official video upload as duplicate",
		},
		{
			name:         "Lyrics upload",
			earlier:      youtubeTrack("a", "Yesterday", "The Beatles", 125, true),
			candidate:    youtubeTrack("b", "Yesterday [Lyrics]", "The Beatles", 125, true),
			shouldReject: true,
			description:  "Should detect lyric upload as duplicate",
		},
		{
			name:         "Cover song - different artist",
			earlier:      youtubeTrack("a", "Yesterday", "The Beatles", 125, true),
			candidate:    youtubeTrack("b", "Yesterday", "Paul McCartney", 125, true),
			shouldReject: false,
			description:  "Should allow cover by different artist",
		},
		{
			name:         "Different songs - similar names",
			earlier:      youtubeTrack("a", "Love", "John Lennon", 200, true),
			candidate:    youtubeTrack("b", "Love Song", "John Lennon", 200, true),
			shouldReject: false,
			description:  "Should allow different songs",
		},
		{
			name:         "Live version",
			earlier:      youtubeTrack("a", "Hotel California", "Eagles", 390, true),
			candidate:    youtubeTrack("b", "Hotel California - Live", "Eagles", 420, true),
			shouldReject: true,
			description:  "Should detect live version as duplicate",
		},
		{
			name:         "Remix version - should be allowed",
			earlier:      youtubeTrack("a", "Le Freak", "CHIC", 330, true),
			candidate:    youtubeTrack("b", "Le Freak (Oliver Heldens Remix)", "CHIC", 300, true),
			shouldReject: false,
			description:  "Should allow remix version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewDuplicateTrackFilter()
			result := filter.Check(context.Background(), tt.candidate, []*track.Track{tt.earlier})

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duplicate_track", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDuplicateTrackFilter_NothingAccepted(t *testing.T) {
	filter := NewDuplicateTrackFilter()
	result := filter.Check(context.Background(), youtubeTrack("a", "Any Song", "Any Artist", 200, true), nil)
	assert.True(t, result.Accepted, "Should accept the first result")
}

func TestNormalizeTrackName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Bohemian Rhapsody", "bohemian rhapsody"},
		{"Bohemian Rhapsody - 2011 Remaster", "bohemian rhapsody"},
		{"Yesterday (Remastered 2023)", "yesterday"},
		{"Hotel California [Remastered]", "hotel california"},
		{"Stairway to Heaven (Radio Edit)", "stairway to heaven"},
		{"Imagine - Live", "imagine"},
		{"Alive", "alive"},
		{"Let It Be (Single Version)", "let it be"},
		{"Hey Jude - Remastered Version", "hey jude"},
		{"Take On Me (Official Video)", "take on me"},
		{"Take On Me (HD)", "take on me"},
		{"Come Together (2019 Mix)", "come together (2019 mix)"},
		{"   Extra   Spaces   ", "extra spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTrackName(tt.input))
		})
	}
}
