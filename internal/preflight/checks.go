package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"pdfpod/internal/config"
	"pdfpod/internal/services/elevenlabs"
	"pdfpod/internal/services/llm"
)

const serviceCheckTimeout = 30 * time.Second

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It makes a single attempt with no retries.
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing (set OPENROUTER_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, serviceCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", cfg.Model)}
}

// CheckTTS verifies that the speech API accepts the configured key.
func CheckTTS(ctx context.Context, name string, cfg config.TTS) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing (set ELEVENLABS_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, serviceCheckTimeout)
	defer cancel()

	client, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		ModelID:      cfg.ModelID,
		OutputFormat: cfg.OutputFormat,
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minBytes available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", humanize.IBytes(free), humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free", humanize.IBytes(free))}
}

func summarizeServiceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
