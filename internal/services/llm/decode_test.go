package llm

import "testing"

func TestDecodeLLMJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", `{"ok":true}`, false},
		{"fenced", "```json\n{\"ok\":true}\n```", false},
		{"fenced no language", "```\n{\"ok\":true}\n```", false},
		{"prose around object", "Here you go: {\"ok\":true} enjoy", false},
		{"empty", "   ", true},
		{"garbage", "no json here", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				OK bool `json:"ok"`
			}
			err := DecodeLLMJSON(tc.input, &out)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !out.OK {
				t.Fatal("expected ok=true")
			}
		})
	}
}

func TestSummarizePayloadSnippetTruncates(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	got := summarizePayloadSnippet(string(long))
	if len(got) != 163 {
		t.Fatalf("expected 160 runes plus ellipsis, got %d", len(got))
	}
	if summarizePayloadSnippet(" \n ") != "<empty>" {
		t.Fatal("expected <empty> placeholder")
	}
}
