package preflight

import (
	"context"

	"pdfpod/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunLocal checks the directories a request writes to.
func RunLocal(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	minFree := uint64(max(cfg.Preflight.MinFreeMiB, 0)) << 20
	return []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Output free space", cfg.Paths.OutputDir, minFree),
	}
}

// RunAll runs the local checks plus live probes of both services.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunLocal(cfg)
	results = append(results, CheckLLM(ctx, "Dialogue LLM", cfg.LLM))
	results = append(results, CheckTTS(ctx, "Speech service", cfg.TTS))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
