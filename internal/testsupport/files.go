package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pdfpod/internal/audio"
)

// MSFormat is mono 16-bit audio at 1000 Hz: one frame per millisecond.
var MSFormat = audio.Format{SampleRate: 1000, Channels: 1, BitDepth: 16}

// WriteWAV writes ms milliseconds of a constant sample value to path.
func WriteWAV(t testing.TB, path string, ms, value int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	clip := audio.Silence(MSFormat, ms)
	for i := range clip.Samples {
		clip.Samples[i] = value
	}
	if err := clip.Export(path); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// PCM returns ms milliseconds of little-endian 16-bit PCM at 1000 Hz.
func PCM(ms int) []byte {
	out := make([]byte, ms*2)
	for i := 0; i < ms; i++ {
		out[2*i] = 0x10
	}
	return out
}
