// Package source provides the search providers behind the music library
// service and the chain that fans a query out to them.
package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/syncin/internal/domain/playlist"
	"github.com/osa030/syncin/internal/domain/track"
)

// Provider is the interface for upstream music providers.
type Provider interface {
	// Name returns the provider type (used in config).
	Name() string
	// Kind returns the provider of the tracks this provider yields.
	Kind() track.Provider
	// Search returns up to limit unfiltered results.
	Search(ctx context.Context, query string, limit int) ([]*track.Track, error)
	// Resolve returns the stream locator of a track. Locators starting with
	// "/" are relative to the library server.
	Resolve(ctx context.Context, t *track.Track) (string, error)
}

// PlaylistProvider is implemented by providers that publish curated playlists.
type PlaylistProvider interface {
	FeaturedPlaylists(ctx context.Context, limit int) ([]playlist.Summary, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]*track.Track, error)
}

// ref returns the provider-side identifier of a remote track.
func ref(t *track.Track) string {
	if r, ok := t.Source.(track.Remote); ok && r.Ref != "" {
		return r.Ref
	}
	return t.ID
}

// decodeSettings decodes provider settings, applies defaults and validates.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
