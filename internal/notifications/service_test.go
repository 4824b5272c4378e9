package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdfpod/internal/config"
	"pdfpod/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected noop service without a topic")
	}
	if err := svc.NotifyPodcastReady(context.Background(), "paper.pdf", "/out/full_podcast.wav", time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "podcast ready",
			send: func(s notifications.Service) error {
				return s.NotifyPodcastReady(context.Background(), "/docs/paper.pdf", "/out/full_podcast.wav", 6330*time.Millisecond)
			},
			expectTitle:    "pdfpod - Podcast Ready",
			expectMessage:  "🎙️ Podcast ready: paper.pdf (6s)\nFile: /out/full_podcast.wav",
			expectTags:     "pdfpod,podcast,completed",
			expectPriority: "high",
		},
		{
			name: "request failed",
			send: func(s notifications.Service) error {
				return s.NotifyRequestFailed(context.Background(), "/docs/scan.pdf", "extract", errors.New("pdf has no extractable text"))
			},
			expectTitle:    "pdfpod - Error",
			expectMessage:  "❌ scan.pdf failed during extract: pdf has no extractable text",
			expectTags:     "pdfpod,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "pdfpod - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "pdfpod,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, got := newNtfyServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL
			svc := notifications.NewService(&cfg)
			if !notifications.Enabled(svc) {
				t.Fatal("expected ntfy service")
			}
			if err := tc.send(svc); err != nil {
				t.Fatalf("send: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected one request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tc.expectTitle || req.message != tc.expectMessage || req.tags != tc.expectTags || req.priority != tc.expectPriority {
				t.Fatalf("unexpected notification: %+v", req)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	if err := notifications.NewService(&cfg).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
