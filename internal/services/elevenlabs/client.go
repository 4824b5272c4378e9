package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pdfpod/internal/audio"
	"pdfpod/internal/services"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io"
	defaultModelID      = "eleven_monolingual_v1"
	defaultOutputFormat = "pcm_44100"
	defaultHTTPTimeout  = 10 * time.Minute
)

// Config captures the runtime settings required to talk to ElevenLabs.
type Config struct {
	APIKey          string
	BaseURL         string
	ModelID         string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	Seed            int
	TimeoutSeconds  int
}

// Client issues single text-to-speech requests. It never retries; callers
// decide how to react to *StatusError values.
type Client struct {
	cfg        Config
	sampleRate int
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient validates cfg and constructs a client. Only pcm_<rate> output
// formats are accepted because responses are wrapped into WAV locally.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = defaultModelID
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	rate, err := parsePCMRate(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{cfg: cfg, sampleRate: rate, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func parsePCMRate(format string) (int, error) {
	rateText, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(format)), "pcm_")
	if !ok {
		return 0, fmt.Errorf("elevenlabs: unsupported output format %q (want pcm_<rate>)", format)
	}
	rate, err := strconv.Atoi(rateText)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("elevenlabs: invalid sample rate in output format %q", format)
	}
	return rate, nil
}

// SampleRate returns the PCM rate requested from the service.
func (c *Client) SampleRate() int {
	return c.sampleRate
}

// StatusError reports a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.Join(strings.Fields(e.Body), " ")
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("elevenlabs: http %d: %s", e.StatusCode, body)
}

// RateLimited reports whether the service throttled the request.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// RetryDelay returns the server-suggested wait, if any.
func (e *StatusError) RetryDelay() time.Duration {
	return e.RetryAfter
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
	PreviousText  string        `json:"previous_text,omitempty"`
	Seed          int           `json:"seed"`
}

// Synthesize converts text to speech with voiceID and returns a WAV file.
// previousText is sent as continuity context when non-empty.
func (c *Client) Synthesize(ctx context.Context, text, voiceID, previousText string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("elevenlabs: api key required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs: text required")
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, errors.New("elevenlabs: voice id required")
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", voiceID)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build url: %w", err)
	}
	query := url.Values{}
	query.Set("output_format", c.cfg.OutputFormat)
	query.Set("enable_logging", "false")
	endpoint += "?" + query.Encode()

	encoded, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
		PreviousText: previousText,
		Seed:         c.cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/pcm")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 {
		return nil, errors.New("elevenlabs: empty audio response")
	}
	clip, err := audio.FromPCM16LE(body, c.sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: wrap pcm: %w", err)
	}
	return clip.Bytes()
}

// HealthCheck verifies the API key by fetching the account record.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("elevenlabs health: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "user")
	if err != nil {
		return fmt.Errorf("elevenlabs health: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("elevenlabs health: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := services.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter,
		}
	}
	return body, nil
}
