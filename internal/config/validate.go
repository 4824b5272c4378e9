package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable. Service credentials are
// checked separately by RequireLLM and RequireTTS so offline commands such as
// compose work without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateComposition(); err != nil {
		return err
	}
	if err := c.validateDialogue(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Preflight.MinFreeMiB < 0 {
		return errors.New("preflight.min_free_mib must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.Stability < 0 || c.TTS.Stability > 1 {
		return errors.New("tts.stability must be between 0 and 1")
	}
	if c.TTS.SimilarityBoost < 0 || c.TTS.SimilarityBoost > 1 {
		return errors.New("tts.similarity_boost must be between 0 and 1")
	}
	if !strings.HasPrefix(c.TTS.OutputFormat, "pcm_") {
		return fmt.Errorf("tts.output_format must be a pcm_<rate> format, got %q", c.TTS.OutputFormat)
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	if c.Synthesis.Concurrency < 1 {
		return errors.New("synthesis.concurrency must be >= 1")
	}
	if c.Synthesis.MaxAttempts < 1 {
		return errors.New("synthesis.max_attempts must be >= 1")
	}
	if c.Synthesis.BackoffBaseMS < 0 {
		return errors.New("synthesis.backoff_base_ms must be >= 0")
	}
	if c.Synthesis.BackoffMaxMS < c.Synthesis.BackoffBaseMS {
		return errors.New("synthesis.backoff_max_ms must be >= synthesis.backoff_base_ms")
	}
	if c.Synthesis.RequestsPerMinute < 0 {
		return errors.New("synthesis.requests_per_minute must be >= 0")
	}
	return nil
}

func (c *Config) validateComposition() error {
	if c.Composition.OverlapLeadMS < 0 {
		return errors.New("composition.overlap_lead_ms must be >= 0")
	}
	if c.Composition.CrossfadeCapMS < 0 {
		return errors.New("composition.crossfade_cap_ms must be >= 0")
	}
	if c.Composition.MinLengthMS < 0 {
		return errors.New("composition.min_length_ms must be >= 0")
	}
	if filepath.Base(c.Composition.OutputFile) != c.Composition.OutputFile {
		return fmt.Errorf("composition.output_file must be a bare file name, got %q", c.Composition.OutputFile)
	}
	if !strings.EqualFold(filepath.Ext(c.Composition.OutputFile), ".wav") {
		return fmt.Errorf("composition.output_file must end in .wav, got %q", c.Composition.OutputFile)
	}
	return nil
}

func (c *Config) validateDialogue() error {
	if c.Dialogue.MaxTextLength < 1 {
		return errors.New("dialogue.max_text_length must be >= 1")
	}
	if c.Dialogue.MaxOverlapDepth < 0 {
		return errors.New("dialogue.max_overlap_depth must be >= 0")
	}
	if len(c.Dialogue.Voices) < 2 {
		return errors.New("dialogue.voices must list at least two voices")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// RequireLLM reports an error when dialogue generation cannot authenticate.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'pdfpod config init')", c.defaultPathHint())
	}
	return nil
}

// RequireTTS reports an error when speech synthesis cannot authenticate.
func (c *Config) RequireTTS() error {
	if c.TTS.APIKey == "" {
		return fmt.Errorf("tts.api_key is required. Set ELEVENLABS_API_KEY env var or edit %s (create with 'pdfpod config init')", c.defaultPathHint())
	}
	return nil
}

func (c *Config) defaultPathHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return "~/.config/pdfpod/config.toml"
	}
	return path
}
