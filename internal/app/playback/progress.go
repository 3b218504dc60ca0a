package playback

import (
	"time"

	"github.com/osa030/syncin/internal/domain/track"
)

// Progress is a display-ready playback position.
type Progress struct {
	Elapsed time.Duration
	Total   time.Duration
	Known   bool    // Total is known
	Percent float64 // 0..100, zero when Total is unknown
}

// NewProgress computes progress for position against total.
// An unknown or non-positive total yields a zero total and zero percent.
func NewProgress(position, total time.Duration, known bool) Progress {
	if position < 0 {
		position = 0
	}
	p := Progress{Elapsed: position}
	if !known || total <= 0 {
		return p
	}

	p.Total = total
	p.Known = true
	p.Percent = float64(position) / float64(total) * 100
	if p.Percent > 100 {
		p.Percent = 100
	}
	return p
}

// ElapsedText renders the elapsed time as m:ss.
func (p Progress) ElapsedText() string {
	return track.FormatTime(p.Elapsed.Seconds())
}

// TotalText renders the total time as m:ss, or 0:00 when unknown.
func (p Progress) TotalText() string {
	if !p.Known {
		return track.FormatTime(0)
	}
	return track.FormatTime(p.Total.Seconds())
}
