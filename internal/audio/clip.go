package audio

import (
	"errors"
	"fmt"
)

// Format describes interleaved integer PCM.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate reports whether the format can be processed.
func (f Format) Validate() error {
	switch {
	case f.SampleRate <= 0:
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	case f.Channels <= 0:
		return fmt.Errorf("invalid channel count %d", f.Channels)
	case f.BitDepth != 8 && f.BitDepth != 16 && f.BitDepth != 24 && f.BitDepth != 32:
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// sampleRange returns the inclusive signed range for the bit depth. 8-bit
// samples are shifted to signed when decoded, so the range is uniform.
func (f Format) sampleRange() (int, int) {
	hi := 1<<(f.BitDepth-1) - 1
	return -hi - 1, hi
}

// framesFor converts milliseconds to whole frames, rounding down.
func (f Format) framesFor(ms int) int {
	if ms <= 0 {
		return 0
	}
	return int(int64(ms) * int64(f.SampleRate) / 1000)
}

// Clip is a decoded audio segment. Samples are interleaved by channel.
type Clip struct {
	Format  Format
	Samples []int
}

// ErrFormatMismatch is returned when two clips must share a format but do not.
var ErrFormatMismatch = errors.New("audio format mismatch")

// NewClip returns an empty clip of the given format.
func NewClip(format Format) *Clip {
	return &Clip{Format: format}
}

// Silence returns a clip of ms milliseconds of silence.
func Silence(format Format, ms int) *Clip {
	return &Clip{Format: format, Samples: make([]int, format.framesFor(ms)*format.Channels)}
}

// Frames returns the number of sample frames in the clip.
func (c *Clip) Frames() int {
	if c == nil || c.Format.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// DurationMS returns the clip length in whole milliseconds.
func (c *Clip) DurationMS() int {
	if c == nil || c.Format.SampleRate <= 0 {
		return 0
	}
	return int(int64(c.Frames()) * 1000 / int64(c.Format.SampleRate))
}

// Clone returns a deep copy.
func (c *Clip) Clone() *Clip {
	return &Clip{Format: c.Format, Samples: append([]int(nil), c.Samples...)}
}

// Slice returns the segment between startMS and endMS. Bounds are clamped to
// the clip; endMS < 0 means the end of the clip.
func (c *Clip) Slice(startMS, endMS int) *Clip {
	frames := c.Frames()
	start := min(c.Format.framesFor(startMS), frames)
	end := frames
	if endMS >= 0 {
		end = min(c.Format.framesFor(endMS), frames)
	}
	if end < start {
		end = start
	}
	ch := c.Format.Channels
	return &Clip{Format: c.Format, Samples: append([]int(nil), c.Samples[start*ch:end*ch]...)}
}

// Overlay mixes other into c starting at positionMS. The result keeps the
// length of c; any part of other past the end is dropped. Sums saturate at
// the bit depth limits.
func (c *Clip) Overlay(other *Clip, positionMS int) error {
	if other == nil {
		return nil
	}
	if other.Format != c.Format {
		return fmt.Errorf("overlay %s onto %s: %w", other.Format, c.Format, ErrFormatMismatch)
	}
	lo, hi := c.Format.sampleRange()
	offset := c.Format.framesFor(positionMS) * c.Format.Channels
	for i, s := range other.Samples {
		idx := offset + i
		if idx >= len(c.Samples) {
			break
		}
		c.Samples[idx] = clamp(c.Samples[idx]+s, lo, hi)
	}
	return nil
}

// Append adds other to the end of c. When crossfadeMS > 0 the tail of c fades
// out linearly while the head of other fades in over that span, so the result
// is crossfadeMS shorter than the plain concatenation. The crossfade is
// limited to the shorter of the two clips.
func (c *Clip) Append(other *Clip, crossfadeMS int) error {
	if other == nil {
		return nil
	}
	if c.Format.Channels == 0 && len(c.Samples) == 0 {
		c.Format = other.Format
	}
	if other.Format != c.Format {
		return fmt.Errorf("append %s onto %s: %w", other.Format, c.Format, ErrFormatMismatch)
	}
	fade := min(c.Format.framesFor(crossfadeMS), c.Frames(), other.Frames())
	if fade <= 0 {
		c.Samples = append(c.Samples, other.Samples...)
		return nil
	}

	ch := c.Format.Channels
	lo, hi := c.Format.sampleRange()
	tail := len(c.Samples) - fade*ch
	for f := 0; f < fade; f++ {
		// gain runs from 0 (start of fade) towards 1 for the incoming clip.
		in := float64(f) / float64(fade)
		out := 1 - in
		for k := 0; k < ch; k++ {
			a := float64(c.Samples[tail+f*ch+k]) * out
			b := float64(other.Samples[f*ch+k]) * in
			c.Samples[tail+f*ch+k] = clamp(int(a+b), lo, hi)
		}
	}
	c.Samples = append(c.Samples, other.Samples[fade*ch:]...)
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
