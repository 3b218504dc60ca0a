package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/syncin/internal/domain/track"
)

// DuplicateTrackFilter drops results that repeat an earlier result of the
// same search.
// Detects:
// - Same provider key
// - Remasters and alternate versions (normalized title + same artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Drops repeated results (remasters and alternate versions included); covers by other artists are kept"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// AppliesTo returns which providers this filter applies to.
func (f *DuplicateTrackFilter) AppliesTo(provider track.Provider) bool {
	return true
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the track repeats an accepted one.
func (f *DuplicateTrackFilter) Check(ctx context.Context, t *track.Track, accepted []*track.Track) Result {
	for _, prev := range accepted {
		if prev.Key() == t.Key() {
			return Reject("duplicate_track")
		}
		if f.isRemaster(prev, t) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

// isRemaster checks if two tracks are the same song (remaster/different version).
// Returns true if:
// - Normalized track names match
// - Main artist is the same
func (f *DuplicateTrackFilter) isRemaster(track1, track2 *track.Track) bool {
	// Normalize track names
	name1 := normalizeTrackName(track1.Title)
	name2 := normalizeTrackName(track2.Title)

	// If normalized names don't match, they're different songs
	if name1 != name2 {
		return false
	}

	// Same normalized name - check if same artist
	// If different artists, it's a cover song (allowed)
	return isSameArtist(track1, track2)
}

// versionPatterns match version and upload decorations in a title.
var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),                    // "- 2011 Remaster"
	regexp.MustCompile(`\s*[(\[][^)\]]*remaster[^)\]]*[)\]]`),              // "(Remastered 2023)", "[Remaster]"
	regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`),               // "- Remastered"
	regexp.MustCompile(`\s*[(\[]official\s+(music\s+)?(video|audio)[)\]]`), // "(Official Music Video)"
	regexp.MustCompile(`\s*[(\[](lyric|lyrics)(\s+video)?[)\]]`),           // "[Lyrics]"
	regexp.MustCompile(`\s*[(\[](hd|hq|4k)[)\]]`),                          // "(HD)"
	regexp.MustCompile(`\s*\(.*?version\)`),                                // "(Single Version)"
	regexp.MustCompile(`\s*\(.*?edit\)`),                                   // "(Radio Edit)"
	regexp.MustCompile(`\s+-?\s*live\b`),                                   // "- Live"
	regexp.MustCompile(`\s*\(live\)`),                                      // "(Live)"
	regexp.MustCompile(`\s*-?\s*radio\s+edit`),                             // "- Radio Edit"
	regexp.MustCompile(`\s*-?\s*single\s+version`),                         // "- Single Version"
}

var spaceRun = regexp.MustCompile(`\s+`)

// normalizeTrackName strips version and upload decorations from a title.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = spaceRun.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist checks if two tracks have the same artist.
func isSameArtist(track1, track2 *track.Track) bool {
	a1 := strings.TrimSpace(track1.Artist)
	a2 := strings.TrimSpace(track2.Artist)
	if a1 == "" || a2 == "" {
		return false
	}
	return strings.EqualFold(a1, a2)
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
