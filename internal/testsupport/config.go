package testsupport

import (
	"path/filepath"
	"testing"

	"pdfpod/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Audio is configured at 1000 Hz so one sample frame is one millisecond, and
// retries back off by a millisecond.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.LLM.APIKey = "test-llm-key"
	cfgVal.TTS.APIKey = "test-tts-key"
	cfgVal.TTS.OutputFormat = "pcm_1000"
	cfgVal.Synthesis.BackoffBaseMS = 1
	cfgVal.Synthesis.BackoffMaxMS = 5
	cfgVal.Preflight.MinFreeMiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLLMURL points the dialogue client at a test server.
func WithLLMURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithTTSURL points the speech client at a test server.
func WithTTSURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TTS.BaseURL = url
	}
}

// WithVoices replaces the enumerated voice set.
func WithVoices(voices ...config.Voice) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dialogue.Voices = voices
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
