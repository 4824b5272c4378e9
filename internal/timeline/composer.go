package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pdfpod/internal/audio"
	"pdfpod/internal/clipcache"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/logging"
	"pdfpod/internal/services"
)

// Default composition parameters.
const (
	DefaultOverlapLead  = 850 * time.Millisecond
	DefaultCrossfadeCap = 10 * time.Millisecond
	DefaultMinLength    = 10 * time.Millisecond
)

// Lookup resolves the clip file for a (speaker, text) pair.
type Lookup func(speaker, text string) (string, bool)

// Segment locates one merged turn on the finished timeline.
type Segment struct {
	Speaker  string
	StartMS  int
	LengthMS int
}

// Stats describes the structure of a composition.
type Stats struct {
	TurnsComposed    int
	TurnsSkipped     int
	OverlapsComposed int
	OverlapsSkipped  int
	Segments         []Segment
}

// Composer merges clips according to a script.
type Composer struct {
	overlapLeadMS  int
	crossfadeCapMS int
	minLengthMS    int
	logger         *slog.Logger
}

// NewComposer builds a Composer. Negative durations select the defaults.
func NewComposer(overlapLead, crossfadeCap, minLength time.Duration, logger *slog.Logger) *Composer {
	if overlapLead < 0 {
		overlapLead = DefaultOverlapLead
	}
	if crossfadeCap < 0 {
		crossfadeCap = DefaultCrossfadeCap
	}
	if minLength < 0 {
		minLength = DefaultMinLength
	}
	return &Composer{
		overlapLeadMS:  int(overlapLead.Milliseconds()),
		crossfadeCapMS: int(crossfadeCap.Milliseconds()),
		minLengthMS:    int(minLength.Milliseconds()),
		logger:         logging.NewComponentLogger(logger, "timeline"),
	}
}

// Compose builds the timeline for script. It fails only when no top-level
// turn could be composed or the context ends.
func (c *Composer) Compose(ctx context.Context, script dialogue.Script, lookup Lookup) (*audio.Clip, Stats, error) {
	var (
		stats    Stats
		timeline *audio.Clip
		format   *audio.Format
	)

	for i, turn := range script.Turns {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		merged, ok := c.mergeTurn(turn, lookup, &format, &stats)
		if !ok {
			stats.TurnsSkipped++
			continue
		}
		if timeline == nil {
			timeline = audio.NewClip(merged.Format)
		}

		fade := c.crossfade(merged.DurationMS(), timeline.DurationMS())
		start := timeline.DurationMS() - fade
		if err := timeline.Append(merged, fade); err != nil {
			return nil, stats, fmt.Errorf("append turn %d: %w", i, err)
		}
		stats.TurnsComposed++
		stats.Segments = append(stats.Segments, Segment{Speaker: turn.Speaker, StartMS: start, LengthMS: merged.DurationMS()})
	}

	if timeline == nil {
		return nil, stats, services.Wrap(services.ErrNotFound, "compose", "timeline", "no turn had a usable clip", nil)
	}
	c.logger.Info("timeline composed",
		logging.Int("turns", stats.TurnsComposed),
		logging.Int("turns_skipped", stats.TurnsSkipped),
		logging.Int("overlaps", stats.OverlapsComposed),
		logging.Int("overlaps_skipped", stats.OverlapsSkipped),
		logging.Int("duration_ms", timeline.DurationMS()),
		logging.String(logging.FieldEventType, "timeline_composed"),
	)
	return timeline, stats, nil
}

// mergeTurn loads a turn's clip and lays its overlaps over the tail. The
// overlap starts OverlapLead before the end of the base; whatever runs past
// the base is appended without a crossfade.
func (c *Composer) mergeTurn(turn dialogue.Turn, lookup Lookup, format **audio.Format, stats *Stats) (*audio.Clip, bool) {
	base, ok := c.load(turn, lookup, format)
	if !ok {
		return nil, false
	}
	for _, overlap := range turn.Overlaps {
		clip, ok := c.mergeTurn(overlap, lookup, format, stats)
		if !ok {
			stats.OverlapsSkipped++
			continue
		}
		start := max(0, base.DurationMS()-c.overlapLeadMS)
		if err := base.Overlay(clip, start); err != nil {
			c.warn("overlap could not be mixed", overlap, err)
			stats.OverlapsSkipped++
			continue
		}
		if clip.DurationMS() > c.overlapLeadMS {
			if err := base.Append(clip.Slice(c.overlapLeadMS, -1), 0); err != nil {
				c.warn("overlap tail could not be appended", overlap, err)
			}
		}
		stats.OverlapsComposed++
	}
	return base, true
}

func (c *Composer) load(turn dialogue.Turn, lookup Lookup, format **audio.Format) (*audio.Clip, bool) {
	path, ok := lookup(turn.Speaker, turn.Text)
	if !ok {
		c.warn("clip missing; skipping", turn, nil)
		return nil, false
	}
	clip, err := audio.Load(path)
	if err != nil {
		c.warn("clip unreadable; skipping", turn, err)
		return nil, false
	}
	if *format == nil {
		f := clip.Format
		*format = &f
		return clip, true
	}
	return clip.Convert(**format), true
}

// crossfade is zero when either side is shorter than MinLength, otherwise
// the cap bounded by half of each side.
func (c *Composer) crossfade(turnMS, timelineMS int) int {
	if turnMS < c.minLengthMS || timelineMS < c.minLengthMS {
		return 0
	}
	return min(c.crossfadeCapMS, turnMS/2, timelineMS/2)
}

func (c *Composer) warn(msg string, turn dialogue.Turn, err error) {
	attrs := []logging.Attr{
		logging.String(logging.FieldSpeaker, turn.Speaker),
		logging.String(logging.FieldTextHash, clipcache.Key(turn.Speaker, turn.Text)),
		logging.String(logging.FieldErrorHint, "re-run synthesis for the missing lines"),
		logging.String(logging.FieldImpact, "line omitted from the podcast"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(c.logger, msg, "clip_skipped", attrs...)
}

// Export writes the finished timeline to path atomically.
func Export(clip *audio.Clip, path string) error {
	if clip == nil || clip.Frames() == 0 {
		return services.Wrap(services.ErrValidation, "compose", "export", "timeline is empty", nil)
	}
	if err := clip.Export(path); err != nil {
		return services.Wrap(services.ErrTransient, "compose", "export", "write podcast", err)
	}
	return nil
}
