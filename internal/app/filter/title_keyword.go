package filter

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/syncin/internal/domain/track"
)

// TitleKeywordConfig represents the configuration for TitleKeywordFilter.
type TitleKeywordConfig struct {
	Keywords []string `yaml:"keywords" mapstructure:"keywords" default:"[\"#shorts\",\"livestream\"]" validate:"dive,required"`
}

// TitleKeywordFilter drops results whose title contains a blocked keyword.
type TitleKeywordFilter struct {
	keywords []string
}

func (f *TitleKeywordFilter) Name() string {
	return "title_keyword_filter"
}

func (f *TitleKeywordFilter) Description() string {
	return "Drops results whose title contains a blocked keyword (case-insensitive)"
}

func (f *TitleKeywordFilter) ReturnCodes() []string {
	return []string{"blocked_keyword"}
}

func (f *TitleKeywordFilter) ValidateConfig(settings map[string]any) error {
	var config TitleKeywordConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}

	f.keywords = make([]string, len(config.Keywords))
	for i, k := range config.Keywords {
		f.keywords[i] = strings.ToLower(k)
	}
	zlog.Info().Msgf("title keyword filter config: keywords=%v", f.keywords)
	return nil
}

func (f *TitleKeywordFilter) AppliesTo(provider track.Provider) bool {
	return provider == track.ProviderYouTube
}

func (f *TitleKeywordFilter) Check(ctx context.Context, t *track.Track, accepted []*track.Track) Result {
	title := strings.ToLower(t.Title)
	for _, k := range f.keywords {
		if strings.Contains(title, k) {
			return Reject("blocked_keyword")
		}
	}
	return Accept()
}

func init() {
	Register("title_keyword_filter", func() Filter {
		return &TitleKeywordFilter{}
	})
}
