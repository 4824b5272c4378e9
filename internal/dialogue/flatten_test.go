package dialogue_test

import (
	"encoding/json"
	"testing"

	"pdfpod/internal/clipcache"
	"pdfpod/internal/dialogue"
)

func loadNested(t *testing.T) dialogue.Script {
	t.Helper()
	var script dialogue.Script
	if err := json.Unmarshal([]byte(nestedJSON), &script); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestFlattenDepthFirstOrder(t *testing.T) {
	jobs := dialogue.Flatten(loadNested(t))
	want := []string{"Welcome, everyone!", "Can't wait.", "Same here.", "Ha!", "Let's go.", "Welcome, everyone!"}
	if len(jobs) != len(want) {
		t.Fatalf("got %d jobs, want %d", len(jobs), len(want))
	}
	for i, job := range jobs {
		if job.Text != want[i] {
			t.Fatalf("job %d text = %q, want %q", i, job.Text, want[i])
		}
		if job.CacheKey != clipcache.Key(job.Speaker, job.Text) {
			t.Fatalf("job %d has wrong cache key", i)
		}
	}
	if jobs[0].CacheKey != jobs[5].CacheKey {
		t.Fatal("repeated line should share a cache key")
	}
}

func TestCountAndSpeakers(t *testing.T) {
	script := loadNested(t)
	if got := dialogue.Count(script); got != 6 {
		t.Fatalf("Count = %d, want 6", got)
	}
	speakers := dialogue.Speakers(script)
	want := []string{"Emma", "Liam", "Olivia"}
	if len(speakers) != len(want) {
		t.Fatalf("Speakers = %v, want %v", speakers, want)
	}
	for i := range want {
		if speakers[i] != want[i] {
			t.Fatalf("Speakers = %v, want %v", speakers, want)
		}
	}
}

func TestWalkReportsDepth(t *testing.T) {
	var depths []int
	dialogue.Walk(loadNested(t), func(_ dialogue.Turn, depth int) {
		depths = append(depths, depth)
	})
	want := []int{0, 0, 1, 2, 1, 0}
	for i := range want {
		if depths[i] != want[i] {
			t.Fatalf("depths = %v, want %v", depths, want)
		}
	}
}

func TestFlattenEmpty(t *testing.T) {
	if jobs := dialogue.Flatten(dialogue.Script{}); len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}
