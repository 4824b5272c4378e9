package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pdfpod/internal/config"
)

func clearServiceEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ELEVENLABS_API_KEY",
		"OPENROUTER_API_KEY",
		"OPENAI_API_KEY",
		"PDFPOD_LOG_LEVEL",
		"PDFPOD_LOG_FORMAT",
		"PDFPOD_OUTPUT_DIR",
		"PDFPOD_STATE_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearServiceEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "pdfpod", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.JobsDBPath() != filepath.Join(tempHome, ".local", "share", "pdfpod", "jobs.db") {
		t.Fatalf("unexpected jobs db path: %q", cfg.JobsDBPath())
	}
	if cfg.Synthesis.Concurrency != 2 {
		t.Fatalf("expected concurrency 2, got %d", cfg.Synthesis.Concurrency)
	}
	if cfg.Synthesis.MaxAttempts != 5 {
		t.Fatalf("expected max attempts 5, got %d", cfg.Synthesis.MaxAttempts)
	}
	if cfg.Composition.OverlapLeadMS != 850 || cfg.Composition.CrossfadeCapMS != 10 || cfg.Composition.MinLengthMS != 10 {
		t.Fatalf("unexpected composition defaults: %+v", cfg.Composition)
	}
	if cfg.Composition.OutputFile != "full_podcast.wav" {
		t.Fatalf("unexpected output file: %q", cfg.Composition.OutputFile)
	}
	if len(cfg.VoiceIDs()) != 6 {
		t.Fatalf("expected six default voices, got %v", cfg.VoiceIDs())
	}
	if cfg.Synthesis.BackoffBase() != time.Second {
		t.Fatalf("unexpected backoff base: %s", cfg.Synthesis.BackoffBase())
	}
	if err := cfg.RequireTTS(); err == nil {
		t.Fatal("expected RequireTTS to fail without a key")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearServiceEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "pdfpod.toml")

	body := `
[paths]
output_dir = "` + filepath.ToSlash(filepath.Join(tempDir, "out")) + `"

[synthesis]
concurrency = 4
requests_per_minute = 30

[composition]
overlap_lead_ms = 500

[[dialogue.voices]]
name = "Ada"
id = "voice-a"

[[dialogue.voices]]
name = "Bo"
id = "voice-b"

[[dialogue.voices]]
name = "dup"
id = "voice-a"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Synthesis.Concurrency != 4 || cfg.Synthesis.RequestsPerMinute != 30 {
		t.Fatalf("unexpected synthesis config: %+v", cfg.Synthesis)
	}
	if cfg.Composition.OverlapLeadMS != 500 {
		t.Fatalf("expected overlap lead 500, got %d", cfg.Composition.OverlapLeadMS)
	}
	if cfg.Composition.CrossfadeCapMS != 10 {
		t.Fatalf("expected default crossfade cap to survive partial file, got %d", cfg.Composition.CrossfadeCapMS)
	}
	ids := cfg.VoiceIDs()
	if len(ids) != 2 || ids[0] != "voice-a" || ids[1] != "voice-b" {
		t.Fatalf("expected deduplicated voices, got %v", ids)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected lowercased logging values, got %+v", cfg.Logging)
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	clearServiceEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "pdfpod.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
		TTS struct {
			APIKey string `toml:"api_key"`
		} `toml:"tts"`
	}
	custom := payload{}
	custom.LLM.APIKey = "file-llm"
	custom.TTS.APIKey = "file-tts"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("ELEVENLABS_API_KEY", "env-tts")
	t.Setenv("OPENROUTER_API_KEY", "env-llm")
	t.Setenv("PDFPOD_LOG_LEVEL", "warn")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TTS.APIKey != "env-tts" {
		t.Errorf("expected TTS key from env, got %q", cfg.TTS.APIKey)
	}
	if cfg.LLM.APIKey != "env-llm" {
		t.Errorf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level from env, got %q", cfg.Logging.Level)
	}
	if err := cfg.RequireLLM(); err != nil {
		t.Errorf("RequireLLM: %v", err)
	}
}

func TestOpenAIKeyOnlyFillsMissingLLMKey(t *testing.T) {
	clearServiceEnv(t)
	configPath := filepath.Join(t.TempDir(), "pdfpod.toml")
	if err := os.WriteFile(configPath, []byte("[llm]\napi_key = \"file-llm\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "env-openai")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "file-llm" {
		t.Fatalf("expected file key to win over OPENAI_API_KEY, got %q", cfg.LLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "ELEVENLABS_API_KEY") {
		t.Fatalf("sample config missing env var hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.OutputDir, "pdfpod") {
		t.Fatalf("expected output dir to contain pdfpod, got %q", cfg.Paths.OutputDir)
	}
	defaults := config.Default()
	if cfg.Composition != defaults.Composition {
		t.Fatalf("sample composition %+v differs from defaults %+v", cfg.Composition, defaults.Composition)
	}
	if len(cfg.Dialogue.Voices) != len(defaults.Dialogue.Voices) {
		t.Fatalf("sample lists %d voices, defaults %d", len(cfg.Dialogue.Voices), len(defaults.Dialogue.Voices))
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero concurrency", func(c *config.Config) { c.Synthesis.Concurrency = 0 }},
		{"zero attempts", func(c *config.Config) { c.Synthesis.MaxAttempts = 0 }},
		{"backoff max below base", func(c *config.Config) { c.Synthesis.BackoffMaxMS = c.Synthesis.BackoffBaseMS - 1 }},
		{"negative overlap lead", func(c *config.Config) { c.Composition.OverlapLeadMS = -1 }},
		{"nested output file", func(c *config.Config) { c.Composition.OutputFile = "a/b.wav" }},
		{"non wav output", func(c *config.Config) { c.Composition.OutputFile = "out.mp3" }},
		{"single voice", func(c *config.Config) { c.Dialogue.Voices = c.Dialogue.Voices[:1] }},
		{"stability range", func(c *config.Config) { c.TTS.Stability = 1.5 }},
		{"mp3 output", func(c *config.Config) { c.TTS.OutputFormat = "mp3_44100_128" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
