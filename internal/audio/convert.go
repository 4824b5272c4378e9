package audio

// Convert returns c in the target format, remixing channels, resampling with
// linear interpolation, and rescaling bit depth as needed. The receiver is
// returned unchanged when formats already match.
func (c *Clip) Convert(target Format) *Clip {
	if c.Format == target {
		return c
	}
	out := c
	if out.Format.Channels != target.Channels {
		out = remix(out, target.Channels)
	}
	if out.Format.SampleRate != target.SampleRate {
		out = resample(out, target.SampleRate)
	}
	if out.Format.BitDepth != target.BitDepth {
		out = rescale(out, target.BitDepth)
	}
	return out
}

func remix(c *Clip, channels int) *Clip {
	src := c.Format.Channels
	frames := c.Frames()
	format := c.Format
	format.Channels = channels
	out := make([]int, frames*channels)
	for f := 0; f < frames; f++ {
		frame := c.Samples[f*src : (f+1)*src]
		if channels == 1 {
			sum := 0
			for _, s := range frame {
				sum += s
			}
			out[f] = sum / src
			continue
		}
		for k := 0; k < channels; k++ {
			out[f*channels+k] = frame[k%src]
		}
	}
	return &Clip{Format: format, Samples: out}
}

func resample(c *Clip, rate int) *Clip {
	ch := c.Format.Channels
	srcFrames := c.Frames()
	format := c.Format
	format.SampleRate = rate
	dstFrames := int(int64(srcFrames) * int64(rate) / int64(c.Format.SampleRate))
	out := make([]int, dstFrames*ch)
	if srcFrames == 0 {
		return &Clip{Format: format, Samples: out}
	}
	ratio := float64(c.Format.SampleRate) / float64(rate)
	for f := 0; f < dstFrames; f++ {
		pos := float64(f) * ratio
		i := int(pos)
		frac := pos - float64(i)
		j := min(i+1, srcFrames-1)
		for k := 0; k < ch; k++ {
			a := float64(c.Samples[i*ch+k])
			b := float64(c.Samples[j*ch+k])
			out[f*ch+k] = int(a + (b-a)*frac)
		}
	}
	return &Clip{Format: format, Samples: out}
}

func rescale(c *Clip, bitDepth int) *Clip {
	format := c.Format
	format.BitDepth = bitDepth
	shift := bitDepth - c.Format.BitDepth
	out := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		if shift > 0 {
			out[i] = s << shift
		} else {
			out[i] = s >> -shift
		}
	}
	return &Clip{Format: format, Samples: out}
}
