package dialogue_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"pdfpod/internal/dialogue"
)

const nestedJSON = `{
  "dialogue": [
    {"speaker": "Emma", "text": "Welcome, everyone!", "speaker_voice_id": "v1"},
    {"speaker": "Liam", "text": "Can't wait.", "speaker_voice_id": "v2",
     "overlaps": [
       {"speaker": "Olivia", "text": "Same here.", "speaker_voice_id": "v3",
        "overlaps": [{"speaker": "Emma", "text": "Ha!", "speaker_voice_id": "v1"}]},
       {"speaker": "Emma", "text": "Let's go.", "speaker_voice_id": "v1"}
     ]},
    {"speaker": "Emma", "text": "Welcome, everyone!", "speaker_voice_id": "v1"}
  ]
}`

func TestScriptUnmarshalShapes(t *testing.T) {
	var wrapped dialogue.Script
	if err := json.Unmarshal([]byte(nestedJSON), &wrapped); err != nil {
		t.Fatalf("unmarshal wrapped: %v", err)
	}
	if len(wrapped.Turns) != 3 || len(wrapped.Turns[1].Overlaps) != 2 {
		t.Fatalf("unexpected structure: %+v", wrapped)
	}
	if wrapped.Turns[1].Overlaps[0].Overlaps[0].Text != "Ha!" {
		t.Fatalf("nested overlap lost: %+v", wrapped.Turns[1].Overlaps[0])
	}

	var bare dialogue.Script
	if err := json.Unmarshal([]byte(`[{"speaker":"A","text":"hi","speaker_voice_id":"v1"}]`), &bare); err != nil {
		t.Fatalf("unmarshal bare: %v", err)
	}
	if len(bare.Turns) != 1 || bare.Turns[0].VoiceID != "v1" {
		t.Fatalf("unexpected bare script: %+v", bare)
	}
}

func TestScriptMarshalUsesDialogueKey(t *testing.T) {
	data, err := json.Marshal(dialogue.Script{Turns: []dialogue.Turn{{Speaker: "A", Text: "hi", VoiceID: "v1"}}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"dialogue":[{"speaker":"A","text":"hi","speaker_voice_id":"v1"}]}`
	if string(data) != want {
		t.Fatalf("got %s want %s", data, want)
	}
	empty, _ := json.Marshal(dialogue.Script{})
	if string(empty) != `{"dialogue":[]}` {
		t.Fatalf("empty script encoded as %s", empty)
	}
}

func TestSaveLoad(t *testing.T) {
	var script dialogue.Script
	if err := json.Unmarshal([]byte(nestedJSON), &script); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "dialogue.json")
	if err := dialogue.Save(path, script); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := dialogue.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if dialogue.Count(loaded) != dialogue.Count(script) {
		t.Fatalf("count mismatch after round trip: %d vs %d", dialogue.Count(loaded), dialogue.Count(script))
	}
	if _, err := dialogue.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalizeTrimsIdentifiersOnly(t *testing.T) {
	script := dialogue.Script{Turns: []dialogue.Turn{{
		Speaker: "  Emma ", Text: " hello ", VoiceID: " v1\n",
		Overlaps: []dialogue.Turn{{Speaker: "Liam ", Text: "hey", VoiceID: " v2"}},
	}}}
	got := script.Normalize()
	if got.Turns[0].Speaker != "Emma" || got.Turns[0].VoiceID != "v1" {
		t.Fatalf("identifiers not trimmed: %+v", got.Turns[0])
	}
	if got.Turns[0].Text != " hello " {
		t.Fatalf("text must be preserved, got %q", got.Turns[0].Text)
	}
	if got.Turns[0].Overlaps[0].Speaker != "Liam" || got.Turns[0].Overlaps[0].VoiceID != "v2" {
		t.Fatalf("overlap not normalized: %+v", got.Turns[0].Overlaps[0])
	}
	if !strings.HasPrefix(script.Turns[0].Speaker, "  ") {
		t.Fatal("Normalize must not mutate the receiver")
	}
}
