package main

import (
	"os"
	"path/filepath"
	"testing"

	"pdfpod/internal/clipcache"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/testsupport"
)

const (
	ideasArgs    = `{"about_the_document":"A short paper.","ideas":[{"observation":"o","idea":"i","outline":"x","key_insights":"k"}],"speakers":[{"speaker_name":"Ava","speaker_voice_id":"v1"},{"speaker_name":"Ben","speaker_voice_id":"v2"}]}`
	dialogueArgs = `{"dialogue":[{"speaker":"Ava","text":"Hello there.","speaker_voice_id":"v1","overlaps":[{"speaker":"Ben","text":"Hi!","speaker_voice_id":"v2"}]},{"speaker":"Ben","text":"Great.","speaker_voice_id":"v2"}]}`
)

func twoTurnScript() dialogue.Script {
	return dialogue.Script{Turns: []dialogue.Turn{
		{Speaker: "Ava", Text: "Hello there.", VoiceID: "v1", Overlaps: []dialogue.Turn{
			{Speaker: "Ben", Text: "Hi!", VoiceID: "v2"},
		}},
		{Speaker: "Ben", Text: "Great.", VoiceID: "v2"},
	}}
}

func TestGenerateProducesPodcast(t *testing.T) {
	chat := testsupport.NewLLMServer(t, map[string]string{
		"generate_scratchpad_ideas": ideasArgs,
		"generate_dialogue":         dialogueArgs,
	})
	speech := testsupport.NewSpeechServer(t)
	env := setupCLITestEnv(t, testsupport.WithLLMURL(chat.URL), testsupport.WithTTSURL(speech.URL))

	pdfPath := filepath.Join(env.baseDir, "paper.pdf")
	testsupport.WritePDF(t, pdfPath, "Attention is all you need")
	copyPath := filepath.Join(env.baseDir, "episode.wav")

	out, _, err := runCLI(t, env.configPath, "generate", pdfPath, "--instruction", "keep it casual", "--output", copyPath, "--json")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	view := decodeResult(t, out)

	// 1000 ms per line: (1000 + 150 overlap tail) + 1000 - 10 crossfade.
	if view.DurationMS != 2140 {
		t.Fatalf("duration = %d, want 2140", view.DurationMS)
	}
	if view.Clips.Total != 3 || view.Clips.Synthesized != 3 {
		t.Fatalf("unexpected clip counts: %+v", view.Clips)
	}
	if filepath.Dir(view.Dir) != env.cfg.Paths.OutputDir {
		t.Fatalf("request dir %s not under %s", view.Dir, env.cfg.Paths.OutputDir)
	}
	if chat.Requests() != 2 || len(speech.Calls()) != 3 {
		t.Fatalf("llm requests %d, speech calls %d", chat.Requests(), len(speech.Calls()))
	}
	if view.CopiedTo != copyPath {
		t.Fatalf("copied_to = %q", view.CopiedTo)
	}
	if _, err := os.Stat(copyPath); err != nil {
		t.Fatalf("copy missing: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "Completed")
	requireContains(t, out, "paper.pdf")
}

func TestGenerateRequiresLLMKey(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.LLM.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, env.configPath, "generate", filepath.Join(env.baseDir, "paper.pdf"))
	if err == nil {
		t.Fatal("expected missing key error")
	}
	requireContains(t, err.Error(), "llm.api_key is required")
}

func TestSynthesizeResumesInPlace(t *testing.T) {
	speech := testsupport.NewSpeechServer(t)
	env := setupCLITestEnv(t, testsupport.WithTTSURL(speech.URL))

	dir := filepath.Join(env.baseDir, "episode")
	scriptPath := filepath.Join(dir, "dialogue.json")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := dialogue.Save(scriptPath, twoTurnScript()); err != nil {
		t.Fatalf("save script: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "synthesize", scriptPath, "--json")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	first := decodeResult(t, out)
	if first.Dir != dir || first.DurationMS != 2140 {
		t.Fatalf("unexpected first run: %+v", first)
	}

	out, _, err = runCLI(t, env.configPath, "synthesize", scriptPath, "--json")
	if err != nil {
		t.Fatalf("second synthesize: %v", err)
	}
	second := decodeResult(t, out)
	if second.Clips.Cached != 3 || len(speech.Calls()) != 3 {
		t.Fatalf("expected cached clips on resume, got %+v with %d calls", second.Clips, len(speech.Calls()))
	}
}

func TestComposeRebuildsFromClips(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.TTS.APIKey = ""
	writeTestConfig(t, env.configPath, env.cfg)

	dir := filepath.Join(env.baseDir, "output_offline")
	script := dialogue.Script{Turns: []dialogue.Turn{
		{Speaker: "Ava", Text: "One.", VoiceID: "v1"},
		{Speaker: "Ben", Text: "Two.", VoiceID: "v2"},
	}}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := dialogue.Save(filepath.Join(dir, "dialogue.json"), script); err != nil {
		t.Fatalf("save script: %v", err)
	}
	cache, err := clipcache.New(filepath.Join(dir, "clips"))
	if err != nil {
		t.Fatalf("clipcache: %v", err)
	}
	testsupport.WriteWAV(t, cache.Resolve("Ava", "One."), 1000, 100)
	testsupport.WriteWAV(t, cache.Resolve("Ben", "Two."), 500, 200)

	out, _, err := runCLI(t, env.configPath, "compose", dir)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	requireContains(t, out, "Podcast ready")
	requireContains(t, out, "1.49s")
	if _, err := os.Stat(filepath.Join(dir, "full_podcast.wav")); err != nil {
		t.Fatalf("podcast missing: %v", err)
	}
}

func TestComposeReportsMissingScript(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env.configPath, "compose", t.TempDir()); err == nil {
		t.Fatal("expected error for folder without dialogue.json")
	}
}
