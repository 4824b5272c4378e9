package timeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pdfpod/internal/audio"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/logging"
	"pdfpod/internal/services"
	"pdfpod/internal/timeline"
)

// One frame per millisecond keeps durations exact.
var msFormat = audio.Format{SampleRate: 1000, Channels: 1, BitDepth: 16}

type clipSet struct {
	t     *testing.T
	dir   string
	paths map[string]string
}

func newClipSet(t *testing.T) *clipSet {
	return &clipSet{t: t, dir: t.TempDir(), paths: map[string]string{}}
}

func (s *clipSet) add(speaker, text string, ms, value int) {
	s.t.Helper()
	clip := audio.Silence(msFormat, ms)
	for i := range clip.Samples {
		clip.Samples[i] = value
	}
	path := filepath.Join(s.dir, speaker+"-"+text+".wav")
	if err := clip.Export(path); err != nil {
		s.t.Fatalf("export fixture: %v", err)
	}
	s.paths[speaker+"\x00"+text] = path
}

func (s *clipSet) lookup(speaker, text string) (string, bool) {
	p, ok := s.paths[speaker+"\x00"+text]
	return p, ok
}

func newComposer() *timeline.Composer {
	return timeline.NewComposer(timeline.DefaultOverlapLead, timeline.DefaultCrossfadeCap, timeline.DefaultMinLength, logging.NewNop())
}

func line(speaker, text string, overlaps ...dialogue.Turn) dialogue.Turn {
	return dialogue.Turn{Speaker: speaker, Text: text, VoiceID: "v", Overlaps: overlaps}
}

func TestComposeThreeTurnScenario(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "one", 2000, 100)
	clips.add("B", "two", 2000, 100)
	clips.add("C", "over", 1200, 100)
	clips.add("A", "three", 2000, 100)

	script := dialogue.Script{Turns: []dialogue.Turn{
		line("A", "one"),
		line("B", "two", line("C", "over")),
		line("A", "three"),
	}}
	out, stats, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := out.DurationMS(); got != 6330 {
		t.Fatalf("duration = %d ms, want 6330", got)
	}
	if stats.TurnsComposed != 3 || stats.OverlapsComposed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	want := []timeline.Segment{
		{Speaker: "A", StartMS: 0, LengthMS: 2000},
		{Speaker: "B", StartMS: 1990, LengthMS: 2350},
		{Speaker: "A", StartMS: 4330, LengthMS: 2000},
	}
	for i := range want {
		if stats.Segments[i] != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, stats.Segments[i], want[i])
		}
	}
}

func TestOverlapPlacementAndTail(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "base", 2000, 1000)
	clips.add("B", "over", 1200, 10)

	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "base", line("B", "over"))}}
	out, _, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	if out.DurationMS() != 2350 {
		t.Fatalf("merged length = %d, want 2000 + (1200-850)", out.DurationMS())
	}
	if out.Samples[1149] != 1000 {
		t.Fatalf("sample before overlap start = %d", out.Samples[1149])
	}
	if out.Samples[1150] != 1010 || out.Samples[1999] != 1010 {
		t.Fatalf("overlap should start at 1150 ms: %d %d", out.Samples[1150], out.Samples[1999])
	}
	if out.Samples[2000] != 10 || out.Samples[2349] != 10 {
		t.Fatalf("overlap tail not appended: %d %d", out.Samples[2000], out.Samples[2349])
	}
}

func TestOverlapOnShortBaseStartsAtZero(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "short", 500, 1)
	clips.add("B", "long", 1000, 2)

	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "short", line("B", "long"))}}
	out, _, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	if out.Samples[0] != 3 {
		t.Fatalf("overlay should begin at 0, got sample %d", out.Samples[0])
	}
	if out.DurationMS() != 500+150 {
		t.Fatalf("duration = %d, want 650", out.DurationMS())
	}
}

func TestNestedOverlapsAreComposed(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "base", 2000, 1)
	clips.add("B", "mid", 1000, 1)
	clips.add("C", "inner", 900, 1)

	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "base", line("B", "mid", line("C", "inner")))}}
	out, stats, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	// B merged: 1000 + (900-850) = 1050; A merged: 2000 + (1050-850) = 2200.
	if out.DurationMS() != 2200 || stats.OverlapsComposed != 2 {
		t.Fatalf("duration=%d stats=%+v", out.DurationMS(), stats)
	}
}

func TestCrossfadeZeroBelowMinLength(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "one", 1000, 1)
	clips.add("B", "blip", 8, 1)
	clips.add("A", "two", 30, 1)

	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "one"), line("B", "blip"), line("A", "two")}}
	out, stats, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	// blip < 10 ms appends with no fade; "two" fades by min(10, 15, 504).
	if out.DurationMS() != 1000+8+30-10 {
		t.Fatalf("duration = %d", out.DurationMS())
	}
	if stats.Segments[1].StartMS != 1000 {
		t.Fatalf("short clip start = %d, want 1000", stats.Segments[1].StartMS)
	}
}

func TestCrossfadeBoundedByHalfLength(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "one", 1000, 1)
	clips.add("B", "two", 12, 1)
	composer := timeline.NewComposer(timeline.DefaultOverlapLead, 100*time.Millisecond, timeline.DefaultMinLength, logging.NewNop())

	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "one"), line("B", "two")}}
	out, _, err := composer.Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	if out.DurationMS() != 1000+12-6 {
		t.Fatalf("duration = %d, want crossfade of 6 ms", out.DurationMS())
	}
}

func TestMissingClipsAreSkipped(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "one", 1000, 1)
	clips.add("A", "three", 1000, 1)

	script := dialogue.Script{Turns: []dialogue.Turn{
		line("A", "one", line("Z", "lost")),
		line("B", "gone"),
		line("A", "three"),
	}}
	out, stats, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatalf("partial input should still compose: %v", err)
	}
	if stats.TurnsSkipped != 1 || stats.OverlapsSkipped != 1 || stats.TurnsComposed != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if out.DurationMS() != 1990 {
		t.Fatalf("duration = %d, want 1990", out.DurationMS())
	}
}

func TestComposeFailsWithNoClips(t *testing.T) {
	clips := newClipSet(t)
	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "nothing")}}
	_, _, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	clips := newClipSet(t)
	clips.add("A", "one", 1500, 7)
	clips.add("B", "two", 1100, -5)
	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "one", line("B", "two")), line("B", "two")}}

	first, _, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := newComposer().Compose(context.Background(), script, clips.lookup)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := first.Bytes()
	b, _ := second.Bytes()
	if string(a) != string(b) {
		t.Fatal("composition output differs between runs")
	}
}

func TestConvertsToFirstClipFormat(t *testing.T) {
	dir := t.TempDir()
	first := audio.Silence(msFormat, 1000)
	other := audio.Silence(audio.Format{SampleRate: 2000, Channels: 2, BitDepth: 16}, 500)
	firstPath := filepath.Join(dir, "first.wav")
	otherPath := filepath.Join(dir, "other.wav")
	if err := first.Export(firstPath); err != nil {
		t.Fatal(err)
	}
	if err := other.Export(otherPath); err != nil {
		t.Fatal(err)
	}
	lookup := func(speaker, _ string) (string, bool) {
		if speaker == "A" {
			return firstPath, true
		}
		return otherPath, true
	}

	script := dialogue.Script{Turns: []dialogue.Turn{line("A", "x"), line("B", "y")}}
	out, _, err := newComposer().Compose(context.Background(), script, lookup)
	if err != nil {
		t.Fatal(err)
	}
	if out.Format != msFormat {
		t.Fatalf("timeline format = %v, want %v", out.Format, msFormat)
	}
	if out.DurationMS() != 1490 {
		t.Fatalf("duration = %d, want 1490", out.DurationMS())
	}
}

func TestExportWritesWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "full_podcast.wav")
	clip := audio.Silence(msFormat, 250)
	if err := timeline.Export(clip, path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	loaded, err := audio.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DurationMS() != 250 {
		t.Fatalf("exported duration = %d", loaded.DurationMS())
	}
	if err := timeline.Export(audio.NewClip(msFormat), path); err == nil {
		t.Fatal("expected error exporting empty timeline")
	}
}
