package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// LLM contains the chat completion settings used for dialogue generation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxTokens      int    `toml:"max_tokens"`
}

// TTS contains the text-to-speech service settings. The voice quality
// parameters are sent unchanged with every request.
type TTS struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	ModelID         string  `toml:"model_id"`
	OutputFormat    string  `toml:"output_format"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	Seed            int     `toml:"seed"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Synthesis controls admission and retry behaviour of clip generation.
type Synthesis struct {
	Concurrency       int `toml:"concurrency"`
	MaxAttempts       int `toml:"max_attempts"`
	BackoffBaseMS     int `toml:"backoff_base_ms"`
	BackoffMaxMS      int `toml:"backoff_max_ms"`
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// Composition controls how clips are merged into the final timeline.
type Composition struct {
	OverlapLeadMS  int    `toml:"overlap_lead_ms"`
	CrossfadeCapMS int    `toml:"crossfade_cap_ms"`
	MinLengthMS    int    `toml:"min_length_ms"`
	OutputFile     string `toml:"output_file"`
}

// Voice maps a display name to a TTS voice identifier. Description is shown
// to the language model when it casts speakers.
type Voice struct {
	Name        string `toml:"name"`
	ID          string `toml:"id"`
	Description string `toml:"description"`
}

// Dialogue contains the limits enforced on generated dialogue scripts.
type Dialogue struct {
	MaxTextLength   int     `toml:"max_text_length"`
	MaxOverlapDepth int     `toml:"max_overlap_depth"`
	Voices          []Voice `toml:"voices"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Preflight contains thresholds for checks that run before a request.
type Preflight struct {
	MinFreeMiB int `toml:"min_free_mib"`
}

// Notifications configures optional ntfy delivery.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for pdfpod.
//
// Configuration sections by subsystem:
//   - Paths: output, state, and log directories
//   - LLM: dialogue generation endpoint
//   - TTS: speech synthesis endpoint and voice parameters
//   - Synthesis: concurrency gate, retries, pacing
//   - Composition: overlap lead, crossfade, output file name
//   - Dialogue: text limits, overlap depth, enumerated voices
//   - Logging: log format and level
//   - Preflight: free space threshold
//   - Notifications: ntfy topic for finished requests
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Synthesis     Synthesis     `toml:"synthesis"`
	Composition   Composition   `toml:"composition"`
	Dialogue      Dialogue      `toml:"dialogue"`
	Logging       Logging       `toml:"logging"`
	Preflight     Preflight     `toml:"preflight"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pdfpod/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pdfpod.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every command relies on.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobsDBPath returns the location of the request history database.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LogFilePath returns the location of the persistent log file.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "pdfpod.log")
}

// VoiceIDs returns the enumerated voice identifiers in configuration order.
func (c *Config) VoiceIDs() []string {
	ids := make([]string, 0, len(c.Dialogue.Voices))
	for _, v := range c.Dialogue.Voices {
		ids = append(ids, v.ID)
	}
	return ids
}

// BackoffBase returns the first retry delay for rate-limited synthesis calls.
func (s Synthesis) BackoffBase() time.Duration {
	return time.Duration(s.BackoffBaseMS) * time.Millisecond
}

// BackoffMax returns the retry delay cap for rate-limited synthesis calls.
func (s Synthesis) BackoffMax() time.Duration {
	return time.Duration(s.BackoffMaxMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
