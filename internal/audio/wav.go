package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pdfpod/internal/fileutil"
)

// ErrInvalidWAV is returned for input that is not a readable PCM WAV file.
var ErrInvalidWAV = errors.New("invalid wav data")

// Decode reads a PCM WAV stream into a Clip.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	format := Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}
	samples := buf.Data
	if format.BitDepth == 8 {
		for i, v := range samples {
			samples[i] = v - unsigned8Offset
		}
	}
	return &Clip{Format: format, Samples: samples}, nil
}

// unsigned8Offset is the midpoint of 8-bit WAV samples, which are stored
// unsigned. Clips hold them signed like every other depth.
const unsigned8Offset = 128

// DecodeBytes decodes an in-memory WAV file.
func DecodeBytes(data []byte) (*Clip, error) {
	return Decode(bytes.NewReader(data))
}

// Load decodes the WAV file at path.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return clip, nil
}

// Encode writes the clip as a PCM WAV stream.
func (c *Clip) Encode(w io.WriteSeeker) error {
	if err := c.Format.Validate(); err != nil {
		return err
	}
	data := c.Samples
	if c.Format.BitDepth == 8 {
		data = make([]int, len(c.Samples))
		for i, v := range c.Samples {
			data[i] = v + unsigned8Offset
		}
	}
	enc := wav.NewEncoder(w, c.Format.SampleRate, c.Format.BitDepth, c.Format.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: c.Format.Channels, SampleRate: c.Format.SampleRate},
		Data:           data,
		SourceBitDepth: c.Format.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// Bytes returns the clip encoded as a WAV file.
func (c *Clip) Bytes() ([]byte, error) {
	var ws memWriteSeeker
	if err := c.Encode(&ws); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// Export writes the clip to path atomically.
func (c *Clip) Export(path string) error {
	return fileutil.WriteAtomic(path, 0o644, func(f *os.File) error {
		return c.Encode(f)
	})
}

// FromPCM16LE interprets raw little-endian 16-bit PCM as a clip. A trailing
// odd byte or partial frame is dropped.
func FromPCM16LE(pcm []byte, sampleRate, channels int) (*Clip, error) {
	format := Format{SampleRate: sampleRate, Channels: channels, BitDepth: 16}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	n := len(pcm) / 2
	n -= n % channels
	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return &Clip{Format: format, Samples: samples}, nil
}

// memWriteSeeker is the in-memory io.WriteSeeker the WAV encoder needs to
// patch chunk sizes after writing samples.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("seek: negative position %d", next)
	}
	m.pos = int(next)
	return next, nil
}
