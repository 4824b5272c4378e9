package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"pdfpod/internal/config"
)

const userAgent = "pdfpod/0.1.0"

// Service defines the notification surface used by the pipeline and CLI.
type Service interface {
	NotifyPodcastReady(ctx context.Context, source, output string, duration time.Duration) error
	NotifyRequestFailed(ctx context.Context, source, stage string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPodcastReady(ctx context.Context, source, output string, duration time.Duration) error {
	message := fmt.Sprintf("🎙️ Podcast ready: %s (%s)", displayName(source), duration.Round(time.Second))
	if output = strings.TrimSpace(output); output != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, output)
	}
	return n.send(ctx, payload{
		title:    "pdfpod - Podcast Ready",
		message:  message,
		tags:     []string{"pdfpod", "podcast", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyRequestFailed(ctx context.Context, source, stage string, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ ")
	builder.WriteString(displayName(source))
	if stage = strings.TrimSpace(stage); stage != "" {
		builder.WriteString(" failed during ")
		builder.WriteString(stage)
	} else {
		builder.WriteString(" failed")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "pdfpod - Error",
		message:  builder.String(),
		tags:     []string{"pdfpod", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "pdfpod - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"pdfpod", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayName(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return "request"
	}
	return filepath.Base(source)
}

type noopService struct{}

func (noopService) NotifyPodcastReady(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyRequestFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
