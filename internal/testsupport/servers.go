package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SpeechServer fakes the text-to-speech endpoint. Every line renders as
// DurationMS(text) milliseconds of PCM at 1000 Hz.
type SpeechServer struct {
	*httptest.Server

	mu         sync.Mutex
	calls      []SpeechCall
	statuses   map[string][]int
	DurationMS func(text string) int
}

// SpeechCall records one request to the fake speech endpoint.
type SpeechCall struct {
	VoiceID      string
	Text         string
	PreviousText string
}

// NewSpeechServer starts a speech server closed on test cleanup.
func NewSpeechServer(t testing.TB) *SpeechServer {
	t.Helper()
	s := &SpeechServer{
		statuses:   map[string][]int{},
		DurationMS: func(string) int { return 1000 },
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// FailNext makes the next len(codes) requests for text answer with codes.
func (s *SpeechServer) FailNext(text string, codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[text] = append(s.statuses[text], codes...)
}

// Calls returns a copy of the recorded requests.
func (s *SpeechServer) Calls() []SpeechCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpeechCall(nil), s.calls...)
}

func (s *SpeechServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/user" {
		_, _ = w.Write([]byte(`{}`))
		return
	}
	voice, ok := strings.CutPrefix(r.URL.Path, "/v1/text-to-speech/")
	if !ok || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var body struct {
		Text         string `json:"text"`
		PreviousText string `json:"previous_text"`
	}
	data, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(data, &body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, SpeechCall{VoiceID: voice, Text: body.Text, PreviousText: body.PreviousText})
	status := 0
	if queue := s.statuses[body.Text]; len(queue) > 0 {
		status = queue[0]
		s.statuses[body.Text] = queue[1:]
	}
	duration := s.DurationMS(body.Text)
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"scripted failure"}`))
		return
	}
	w.Header().Set("Content-Type", "audio/pcm")
	_, _ = w.Write(PCM(duration))
}

// LLMServer fakes a chat completion endpoint that answers forced tool calls
// with canned arguments keyed by tool name.
type LLMServer struct {
	*httptest.Server

	mu        sync.Mutex
	arguments map[string]string
	requests  int
}

// NewLLMServer starts a completion server closed on test cleanup.
func NewLLMServer(t testing.TB, arguments map[string]string) *LLMServer {
	t.Helper()
	s := &LLMServer{arguments: arguments}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many completions were served.
func (s *LLMServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *LLMServer) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToolChoice struct {
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"tool_choice"`
	}
	data, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(data, &req)

	s.mu.Lock()
	s.requests++
	name := req.ToolChoice.Function.Name
	args, ok := s.arguments[name]
	s.mu.Unlock()

	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message":       map[string]any{"content": `{"ok":true}`},
				"finish_reason": "stop",
			}},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{
			"message": map[string]any{
				"tool_calls": []any{map[string]any{
					"type":     "function",
					"id":       "call_1",
					"function": map[string]any{"name": name, "arguments": args},
				}},
			},
			"finish_reason": "tool_calls",
		}},
	})
}
