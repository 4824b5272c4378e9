package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pdfpod/internal/config"
	"pdfpod/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	for _, key := range []string{"ELEVENLABS_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "PDFPOD_OUTPUT_DIR", "PDFPOD_STATE_DIR", "PDFPOD_LOG_LEVEL", "PDFPOD_LOG_FORMAT", "PDFPOD_NTFY_TOPIC"} {
		t.Setenv(key, "")
	}
	opts = append([]testsupport.ConfigOption{
		testsupport.WithVoices(config.Voice{Name: "Ava", ID: "v1"}, config.Voice{Name: "Ben", ID: "v2"}),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"

	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "pdfpod.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func decodeResult(t *testing.T, out string) resultView {
	t.Helper()
	var view resultView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode result %q: %v", out, err)
	}
	return view
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
