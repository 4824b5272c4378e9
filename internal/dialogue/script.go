package dialogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"pdfpod/internal/fileutil"
)

// Turn is one utterance. Overlaps are spoken over the tail of this turn, in
// order, and may themselves carry overlaps.
type Turn struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	VoiceID  string `json:"speaker_voice_id"`
	Overlaps []Turn `json:"overlaps,omitempty"`
}

// Script is an ordered conversation. Top-level turn order is timeline order.
type Script struct {
	Turns []Turn
}

type scriptDocument struct {
	Dialogue []Turn `json:"dialogue"`
}

// MarshalJSON encodes the script as {"dialogue": [...]}.
func (s Script) MarshalJSON() ([]byte, error) {
	turns := s.Turns
	if turns == nil {
		turns = []Turn{}
	}
	return json.Marshal(scriptDocument{Dialogue: turns})
}

// UnmarshalJSON accepts either {"dialogue": [...]} or a bare array of turns.
func (s *Script) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var turns []Turn
		if err := json.Unmarshal(trimmed, &turns); err != nil {
			return err
		}
		s.Turns = turns
		return nil
	}
	var doc scriptDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return err
	}
	s.Turns = doc.Dialogue
	return nil
}

// Normalize trims whitespace around speaker names and voice identifiers.
// Text is left untouched because it feeds the clip cache key.
func (s Script) Normalize() Script {
	return Script{Turns: normalizeTurns(s.Turns)}
}

func normalizeTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = Turn{
			Speaker:  strings.TrimSpace(t.Speaker),
			Text:     t.Text,
			VoiceID:  strings.TrimSpace(t.VoiceID),
			Overlaps: normalizeTurns(t.Overlaps),
		}
	}
	return out
}

// Load reads a dialogue file written by Save or produced by hand.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	var script Script
	if err := json.Unmarshal(data, &script); err != nil {
		return Script{}, fmt.Errorf("parse dialogue %s: %w", path, err)
	}
	return script, nil
}

// Save writes the script as indented JSON, atomically.
func Save(path string, script Script) error {
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dialogue: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
