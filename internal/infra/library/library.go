// Package library scans a directory of audio files into local tracks.
package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/audio"
)

const (
	defaultAlbum  = "My Music"
	unknownArtist = "Unknown Artist"
)

var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

// Scan walks dir and returns one local track per supported audio file,
// ordered by path. File names of the form "Artist - Title.mp3" are split
// into artist and title; the containing directory names the album.
func Scan(dir string) ([]*track.Track, error) {
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open library %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("library %s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if audio.IsSupportedFile(p) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan library %s", dir)
	}
	sort.Strings(paths)

	tracks := make([]*track.Track, 0, len(paths))
	for _, p := range paths {
		tracks = append(tracks, newTrack(dir, p))
	}
	zlog.Info().Msgf("library scanned: dir=%s, tracks=%d", dir, len(tracks))
	return tracks, nil
}

func newTrack(root, p string) *track.Track {
	artist, title := splitName(strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)))

	album := defaultAlbum
	if parent := filepath.Dir(p); parent != filepath.Clean(root) {
		album = filepath.Base(parent)
	}

	seconds := 0
	if d, err := audio.FileDuration(p); err != nil {
		zlog.Debug().Err(err).Msgf("could not read duration: path=%s", p)
	} else {
		seconds = int(d.Seconds())
	}

	rel, err := filepath.Rel(root, p)
	if err != nil {
		rel = p
	}
	return &track.Track{
		ID:          "local-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(rel))).String(),
		Title:       title,
		Artist:      artist,
		Album:       album,
		DurationSec: seconds,
		ArtURL:      findCover(filepath.Dir(p)),
		Source:      track.Local{Path: p},
	}
}

func splitName(name string) (artist, title string) {
	if a, t, ok := strings.Cut(name, " - "); ok && strings.TrimSpace(a) != "" && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(a), strings.TrimSpace(t)
	}
	return unknownArtist, strings.TrimSpace(name)
}

func findCover(dir string) string {
	for _, name := range coverNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
