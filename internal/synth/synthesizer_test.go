package synth_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pdfpod/internal/clipcache"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/logging"
	"pdfpod/internal/services"
	"pdfpod/internal/services/elevenlabs"
	"pdfpod/internal/synth"
)

type fakeSpeaker struct {
	mu       sync.Mutex
	calls    []synth.Request
	failures map[string][]error
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeSpeaker) Synthesize(_ context.Context, req synth.Request) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if queue := f.failures[req.Text]; len(queue) > 0 {
		err := queue[0]
		f.failures[req.Text] = queue[1:]
		return nil, err
	}
	return []byte("RIFF" + req.Text), nil
}

func (f *fakeSpeaker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func rateLimited(after time.Duration) error {
	return &elevenlabs.StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: after}
}

func makeJobs(lines ...[2]string) []dialogue.Job {
	jobs := make([]dialogue.Job, 0, len(lines))
	for _, l := range lines {
		jobs = append(jobs, dialogue.Job{Speaker: l[0], Text: l[1], VoiceID: "v-" + l[0], CacheKey: clipcache.Key(l[0], l[1])})
	}
	return jobs
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newSynth(t *testing.T, speaker synth.Speaker, opts synth.Options) (*synth.Synthesizer, *clipcache.Cache) {
	t.Helper()
	cache, err := clipcache.New(t.TempDir())
	if err != nil {
		t.Fatalf("clipcache.New: %v", err)
	}
	if opts.Sleep == nil {
		opts.Sleep = (&sleepRecorder{}).sleep
	}
	return synth.New(speaker, cache, opts, logging.NewNop()), cache
}

func TestRunSynthesizesEveryJobInOrder(t *testing.T) {
	speaker := &fakeSpeaker{}
	var progress []int
	s, cache := newSynth(t, speaker, synth.Options{Progress: func(_ synth.Result, done, total int) {
		if total != 3 {
			t.Errorf("total = %d", total)
		}
		progress = append(progress, done)
	}})
	jobs := makeJobs([2]string{"Ada", "one"}, [2]string{"Bo", "two"}, [2]string{"Ada", "three"})

	report := s.Run(context.Background(), jobs)
	if report.Synthesized != 3 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for i, r := range report.Results {
		if r.Job.Text != jobs[i].Text {
			t.Fatalf("results not in job order at %d", i)
		}
		if r.Path != cache.Path(jobs[i].CacheKey) {
			t.Fatalf("result %d path = %s", i, r.Path)
		}
		if _, err := os.Stat(r.Path); err != nil {
			t.Fatalf("clip missing: %v", err)
		}
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Fatalf("progress callbacks = %v", progress)
	}
}

func TestRunWarmCacheMakesNoCalls(t *testing.T) {
	speaker := &fakeSpeaker{}
	s, cache := newSynth(t, speaker, synth.Options{})
	jobs := makeJobs([2]string{"Ada", "one"}, [2]string{"Bo", "two"})
	for _, job := range jobs {
		if _, err := cache.Store(job.CacheKey, []byte("cached")); err != nil {
			t.Fatal(err)
		}
	}

	report := s.Run(context.Background(), jobs)
	if speaker.callCount() != 0 {
		t.Fatalf("expected zero calls, got %d", speaker.callCount())
	}
	if report.Cached != 2 {
		t.Fatalf("expected 2 cached results, got %+v", report)
	}
}

func TestRunDeduplicatesRepeatedLines(t *testing.T) {
	speaker := &fakeSpeaker{}
	s, _ := newSynth(t, speaker, synth.Options{Concurrency: 4})
	jobs := makeJobs([2]string{"Ada", "hi"}, [2]string{"Bo", "yo"}, [2]string{"Ada", "hi"})

	report := s.Run(context.Background(), jobs)
	if speaker.callCount() != 2 {
		t.Fatalf("expected one call per unique pair, got %d", speaker.callCount())
	}
	dup := report.Results[2]
	if dup.Status != synth.StatusDuplicate || dup.Path != report.Results[0].Path || dup.Path == "" {
		t.Fatalf("duplicate should mirror first occurrence: %+v", dup)
	}
	if report.Duplicates != 1 || report.Synthesized != 2 {
		t.Fatalf("unexpected report counts: %+v", report)
	}
}

func TestRunPassesPreviousText(t *testing.T) {
	speaker := &fakeSpeaker{}
	s, _ := newSynth(t, speaker, synth.Options{Concurrency: 1})
	s.Run(context.Background(), makeJobs([2]string{"Ada", "first"}, [2]string{"Bo", "second"}, [2]string{"Ada", "third"}))

	want := map[string]string{"first": "", "second": "first", "third": "second"}
	for _, call := range speaker.calls {
		if call.PreviousText != want[call.Text] {
			t.Fatalf("previous text for %q = %q, want %q", call.Text, call.PreviousText, want[call.Text])
		}
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	speaker := &fakeSpeaker{delay: 20 * time.Millisecond}
	s, _ := newSynth(t, speaker, synth.Options{Concurrency: 2})
	s.Run(context.Background(), makeJobs(
		[2]string{"A", "1"}, [2]string{"A", "2"}, [2]string{"A", "3"},
		[2]string{"A", "4"}, [2]string{"A", "5"}, [2]string{"A", "6"},
	))
	if peak := speaker.peak.Load(); peak > 2 {
		t.Fatalf("observed %d concurrent calls, limit is 2", peak)
	}
	if speaker.callCount() != 6 {
		t.Fatalf("expected 6 calls, got %d", speaker.callCount())
	}
}

func TestSynthesizeRetriesRateLimitWithBackoff(t *testing.T) {
	speaker := &fakeSpeaker{failures: map[string][]error{
		"busy": {rateLimited(0), rateLimited(0), rateLimited(0)},
	}}
	rec := &sleepRecorder{}
	s, _ := newSynth(t, speaker, synth.Options{BackoffBase: 100 * time.Millisecond, BackoffMax: 300 * time.Millisecond, Sleep: rec.sleep})

	result := s.Synthesize(context.Background(), makeJobs([2]string{"Ada", "busy"})[0], "")
	if result.Status != synth.StatusSynthesized || result.Attempts != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", rec.delays, want)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", rec.delays, want)
		}
	}
}

func TestSynthesizeHonoursRetryAfter(t *testing.T) {
	speaker := &fakeSpeaker{failures: map[string][]error{"busy": {rateLimited(2 * time.Second), rateLimited(time.Hour)}}}
	rec := &sleepRecorder{}
	s, _ := newSynth(t, speaker, synth.Options{BackoffBase: time.Millisecond, BackoffMax: 10 * time.Second, Sleep: rec.sleep})

	s.Synthesize(context.Background(), makeJobs([2]string{"Ada", "busy"})[0], "")
	if len(rec.delays) != 2 || rec.delays[0] != 2*time.Second || rec.delays[1] != 10*time.Second {
		t.Fatalf("delays = %v", rec.delays)
	}
}

func TestSynthesizeGivesUpAfterMaxAttempts(t *testing.T) {
	errs := make([]error, 10)
	for i := range errs {
		errs[i] = rateLimited(0)
	}
	speaker := &fakeSpeaker{failures: map[string][]error{"busy": errs}}
	s, cache := newSynth(t, speaker, synth.Options{MaxAttempts: 5})

	job := makeJobs([2]string{"Ada", "busy"})[0]
	result := s.Synthesize(context.Background(), job, "")
	if result.Status != synth.StatusFailed || result.Attempts != 5 || speaker.callCount() != 5 {
		t.Fatalf("unexpected result: %+v calls=%d", result, speaker.callCount())
	}
	if !errors.Is(result.Err, services.ErrRateLimited) {
		t.Fatalf("expected rate limited marker, got %v", result.Err)
	}
	if cache.Exists(job.CacheKey) {
		t.Fatal("failed job must not leave a clip")
	}
}

func TestRunIsolatesNonRetryableFailures(t *testing.T) {
	speaker := &fakeSpeaker{failures: map[string][]error{"bad": {errors.New("invalid voice")}}}
	s, _ := newSynth(t, speaker, synth.Options{})
	report := s.Run(context.Background(), makeJobs([2]string{"Ada", "good"}, [2]string{"Bo", "bad"}, [2]string{"Ada", "fine"}))

	if report.Failed != 1 || report.Synthesized != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	failed := report.Results[1]
	if failed.Attempts != 1 || !errors.Is(failed.Err, services.ErrExternalService) {
		t.Fatalf("non-rate-limit errors must not retry: %+v", failed)
	}
}

func TestSpeakerFuncAdapts(t *testing.T) {
	var got synth.Request
	speaker := synth.SpeakerFunc(func(_ context.Context, req synth.Request) ([]byte, error) {
		got = req
		return []byte("ok"), nil
	})
	if _, err := speaker.Synthesize(context.Background(), synth.Request{Text: "t", VoiceID: "v"}); err != nil {
		t.Fatal(err)
	}
	if got.Text != "t" || got.VoiceID != "v" {
		t.Fatalf("request not forwarded: %+v", got)
	}
}
