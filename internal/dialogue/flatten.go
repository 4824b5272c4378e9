package dialogue

import "pdfpod/internal/clipcache"

// Job is one clip to synthesize.
type Job struct {
	Speaker  string
	Text     string
	VoiceID  string
	CacheKey string
}

// Flatten lists one job per turn in depth-first document order: a turn, then
// its overlaps (recursively), then the next turn. Repeated lines are kept.
func Flatten(script Script) []Job {
	jobs := make([]Job, 0, Count(script))
	Walk(script, func(turn Turn, _ int) {
		jobs = append(jobs, Job{
			Speaker:  turn.Speaker,
			Text:     turn.Text,
			VoiceID:  turn.VoiceID,
			CacheKey: clipcache.Key(turn.Speaker, turn.Text),
		})
	})
	return jobs
}

// Walk visits every turn in Flatten order with its overlap depth.
func Walk(script Script, visit func(turn Turn, depth int)) {
	var walk func(turns []Turn, depth int)
	walk = func(turns []Turn, depth int) {
		for _, t := range turns {
			visit(t, depth)
			walk(t.Overlaps, depth+1)
		}
	}
	walk(script.Turns, 0)
}

// Count returns the number of clip references in the script.
func Count(script Script) int {
	n := 0
	Walk(script, func(Turn, int) { n++ })
	return n
}

// Speakers returns speaker names in order of first appearance.
func Speakers(script Script) []string {
	seen := make(map[string]struct{})
	var out []string
	Walk(script, func(t Turn, _ int) {
		if _, ok := seen[t.Speaker]; ok {
			return
		}
		seen[t.Speaker] = struct{}{}
		out = append(out, t.Speaker)
	})
	return out
}
