package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the environment variables that take precedence over
// values read from the config file.
type envOverrides struct {
	ElevenLabsKey string `env:"ELEVENLABS_API_KEY"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	LogLevel      string `env:"PDFPOD_LOG_LEVEL"`
	LogFormat     string `env:"PDFPOD_LOG_FORMAT"`
	OutputDir     string `env:"PDFPOD_OUTPUT_DIR"`
	StateDir      string `env:"PDFPOD_STATE_DIR"`
	NtfyTopic     string `env:"PDFPOD_NTFY_TOPIC"`
}

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTTS()
	c.normalizeDialogue()
	c.normalizeComposition()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if key := strings.TrimSpace(overrides.ElevenLabsKey); key != "" {
		c.TTS.APIKey = key
	}
	switch {
	case strings.TrimSpace(overrides.OpenRouterKey) != "":
		c.LLM.APIKey = strings.TrimSpace(overrides.OpenRouterKey)
	case strings.TrimSpace(overrides.OpenAIKey) != "" && strings.TrimSpace(c.LLM.APIKey) == "":
		c.LLM.APIKey = strings.TrimSpace(overrides.OpenAIKey)
	}
	if level := strings.TrimSpace(overrides.LogLevel); level != "" {
		c.Logging.Level = level
	}
	if format := strings.TrimSpace(overrides.LogFormat); format != "" {
		c.Logging.Format = format
	}
	if dir := strings.TrimSpace(overrides.OutputDir); dir != "" {
		c.Paths.OutputDir = dir
	}
	if dir := strings.TrimSpace(overrides.StateDir); dir != "" {
		c.Paths.StateDir = dir
	}
	if topic := strings.TrimSpace(overrides.NtfyTopic); topic != "" {
		c.Notifications.NtfyTopic = topic
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	c.TTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.BaseURL), "/")
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.ModelID = strings.TrimSpace(c.TTS.ModelID)
	if c.TTS.ModelID == "" {
		c.TTS.ModelID = defaultTTSModelID
	}
	c.TTS.OutputFormat = strings.ToLower(strings.TrimSpace(c.TTS.OutputFormat))
	if c.TTS.OutputFormat == "" {
		c.TTS.OutputFormat = defaultTTSOutputFormat
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
}

func (c *Config) normalizeDialogue() {
	voices := make([]Voice, 0, len(c.Dialogue.Voices))
	seen := make(map[string]struct{}, len(c.Dialogue.Voices))
	for _, v := range c.Dialogue.Voices {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		voices = append(voices, Voice{Name: strings.TrimSpace(v.Name), ID: id, Description: strings.TrimSpace(v.Description)})
	}
	if len(voices) == 0 {
		voices = defaultVoices()
	}
	c.Dialogue.Voices = voices
}

func (c *Config) normalizeComposition() {
	c.Composition.OutputFile = strings.TrimSpace(c.Composition.OutputFile)
	if c.Composition.OutputFile == "" {
		c.Composition.OutputFile = defaultOutputFile
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
