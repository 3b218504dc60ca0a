package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/domain/track"
	"github.com/osa030/syncin/internal/infra/config"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain from the enabled filter entries.
func NewChainFromConfig(cfgs []config.FilterConfig) (*Chain, error) {
	chain := NewChain()
	for i, fc := range cfgs {
		if !fc.Enabled {
			continue
		}
		factory, ok := registry[fc.Type]
		if !ok {
			return nil, errors.Newf("unsupported filter type: %s (filter index %d)", fc.Type, i)
		}
		f := factory()
		if err := f.ValidateConfig(fc.Settings); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for filter %s", fc.Type)
		}
		chain.Add(f)
		zlog.Info().Msgf("registered filter: index=%d type=%s", i+1, fc.Type)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the track.
// Filters are only applied if they declare they apply to the track's provider.
func (c *Chain) Execute(ctx context.Context, t *track.Track, accepted []*track.Track) Result {
	provider := t.Provider()
	for _, f := range c.filters {
		if !f.AppliesTo(provider) {
			continue
		}

		result := f.Check(ctx, t, accepted)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply keeps the tracks every filter accepts, in order, up to limit
// (0 means no limit).
func (c *Chain) Apply(ctx context.Context, tracks []*track.Track, limit int) []*track.Track {
	accepted := make([]*track.Track, 0, len(tracks))
	for _, t := range tracks {
		if limit > 0 && len(accepted) >= limit {
			break
		}
		result := c.Execute(ctx, t, accepted)
		if !result.Accepted {
			zlog.Debug().Msgf("search result filtered: id=%s title=%q code=%s", t.ID, t.Title, result.Code)
			continue
		}
		accepted = append(accepted, t)
	}
	return accepted
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
