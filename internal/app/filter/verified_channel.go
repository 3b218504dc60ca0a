package filter

import (
	"context"

	"github.com/osa030/syncin/internal/domain/track"
)

// VerifiedChannelFilter keeps only results uploaded by verified channels.
type VerifiedChannelFilter struct{}

func (f *VerifiedChannelFilter) Name() string {
	return "verified_channel_filter"
}

func (f *VerifiedChannelFilter) Description() string {
	return "Keeps only results from verified channels"
}

func (f *VerifiedChannelFilter) ReturnCodes() []string {
	return []string{"unverified_channel"}
}

func (f *VerifiedChannelFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

func (f *VerifiedChannelFilter) AppliesTo(provider track.Provider) bool {
	return provider == track.ProviderYouTube
}

func (f *VerifiedChannelFilter) Check(ctx context.Context, t *track.Track, accepted []*track.Track) Result {
	if r, ok := t.Source.(track.Remote); ok && r.Verified {
		return Accept()
	}
	return Reject("unverified_channel")
}

func init() {
	Register("verified_channel_filter", func() Filter {
		return &VerifiedChannelFilter{}
	})
}
