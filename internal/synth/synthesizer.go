package synth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"pdfpod/internal/clipcache"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/logging"
	"pdfpod/internal/services"
)

const (
	defaultConcurrency = 2
	defaultMaxAttempts = 5
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 30 * time.Second
)

// Status describes how a job settled.
type Status string

const (
	StatusSynthesized Status = "synthesized"
	StatusCached      Status = "cached"
	StatusDuplicate   Status = "duplicate"
	StatusFailed      Status = "failed"
)

// Result is the outcome of one job. Duplicates mirror the path and error of
// the first occurrence of the same cache key.
type Result struct {
	Job      dialogue.Job
	Path     string
	Status   Status
	Attempts int
	Err      error
}

// Report aggregates a run. Results are in job order.
type Report struct {
	Results     []Result
	Synthesized int
	Cached      int
	Duplicates  int
	Failed      int
}

// Options tunes a Synthesizer. Zero values select defaults.
type Options struct {
	Concurrency int
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// RequestsPerMinute paces calls to the speech service when positive.
	RequestsPerMinute int
	// Progress is invoked once per settled job, serially.
	Progress func(result Result, done, total int)
	// Sleep waits between retries; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Synthesizer renders jobs through a Speaker into a clip cache.
type Synthesizer struct {
	speaker Speaker
	cache   *clipcache.Cache
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New constructs a Synthesizer.
func New(speaker Speaker, cache *clipcache.Cache, opts Options, logger *slog.Logger) *Synthesizer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = defaultBackoffMax
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	s := &Synthesizer{
		speaker: speaker,
		cache:   cache,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "synth"),
	}
	if opts.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return s
}

// Run synthesizes every job and returns once all of them have settled.
// A failed job never stops its siblings.
func (s *Synthesizer) Run(ctx context.Context, jobs []dialogue.Job) Report {
	total := len(jobs)
	results := make([]Result, total)
	firstIndex := make(map[string]int, total)
	duplicateOf := make(map[int]int)

	sampler := logging.NewProgressSampler(10)
	var (
		progressMu sync.Mutex
		done       int
	)
	settle := func(r Result) {
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		if s.opts.Progress != nil {
			s.opts.Progress(r, done, total)
		}
		if sampler.ShouldLog(done, total) {
			s.logger.Info("synthesis progress",
				logging.Int("done", done),
				logging.Int("total", total),
				logging.String(logging.FieldEventType, "synthesis_progress"),
			)
		}
	}

	sem := semaphore.NewWeighted(int64(s.opts.Concurrency))
	var wg sync.WaitGroup
	previous := ""
	for i, job := range jobs {
		previousText := previous
		previous = job.Text

		if first, seen := firstIndex[job.CacheKey]; seen {
			duplicateOf[i] = first
			continue
		}
		firstIndex[job.CacheKey] = i

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Job: job, Status: StatusFailed, Err: err}
			settle(results[i])
			continue
		}
		wg.Add(1)
		go func(i int, job dialogue.Job, previousText string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.Synthesize(ctx, job, previousText)
			settle(results[i])
		}(i, job, previousText)
	}
	wg.Wait()

	for i, job := range jobs {
		first, ok := duplicateOf[i]
		if !ok {
			continue
		}
		src := results[first]
		results[i] = Result{Job: job, Path: src.Path, Status: StatusDuplicate, Err: src.Err}
		settle(results[i])
	}

	report := Report{Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSynthesized:
			report.Synthesized++
		case StatusCached:
			report.Cached++
		case StatusDuplicate:
			report.Duplicates++
		case StatusFailed:
			report.Failed++
		}
	}
	return report
}

// Synthesize renders a single job, reusing a cached clip when one exists.
func (s *Synthesizer) Synthesize(ctx context.Context, job dialogue.Job, previousText string) Result {
	result := Result{Job: job}
	logger := s.logger.With(
		logging.String(logging.FieldSpeaker, job.Speaker),
		logging.String(logging.FieldTextHash, job.CacheKey),
	)

	unlock, err := s.cache.Lock(ctx, job.CacheKey)
	if err != nil {
		return s.fail(logger, result, services.Wrap(services.ErrTransient, "synthesize", "lock clip", "could not lock clip", err))
	}
	defer unlock()

	if s.cache.Exists(job.CacheKey) {
		result.Path = s.cache.Path(job.CacheKey)
		result.Status = StatusCached
		logger.Debug("clip cache hit")
		return result
	}

	req := Request{Text: job.Text, VoiceID: job.VoiceID, PreviousText: previousText}
	for attempt := 1; ; attempt++ {
		result.Attempts = attempt
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return s.fail(logger, result, err)
			}
		}

		data, err := s.speaker.Synthesize(ctx, req)
		if err == nil {
			path, storeErr := s.cache.Store(job.CacheKey, data)
			switch {
			case errors.Is(storeErr, clipcache.ErrExists):
				result.Status = StatusCached
			case storeErr != nil:
				return s.fail(logger, result, services.Wrap(services.ErrTransient, "synthesize", "store clip", "could not write clip", storeErr))
			default:
				result.Status = StatusSynthesized
			}
			result.Path = path
			logger.Debug("clip synthesized", logging.Int("attempts", attempt), logging.Int("bytes", len(data)))
			return result
		}

		if !isRateLimited(err) {
			return s.fail(logger, result, services.Wrap(services.ErrExternalService, "synthesize", "speak", "speech request failed", err))
		}
		if attempt >= s.opts.MaxAttempts {
			return s.fail(logger, result, services.Wrap(services.ErrRateLimited, "synthesize", "speak", "rate limit retries exhausted", err))
		}

		delay := s.retryDelay(attempt, err)
		logger.Info("speech request rate limited; backing off",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.String(logging.FieldEventType, "synthesis_retry"),
		)
		if err := s.opts.Sleep(ctx, delay); err != nil {
			return s.fail(logger, result, err)
		}
	}
}

func (s *Synthesizer) fail(logger *slog.Logger, result Result, err error) Result {
	result.Status = StatusFailed
	result.Err = err
	logging.WarnWithContext(logger, "clip synthesis failed", "synthesis_failed",
		logging.Error(err),
		logging.ErrorKind(err),
		logging.Int("attempts", result.Attempts),
		logging.String(logging.FieldErrorHint, "check the speech service key and quota"),
		logging.String(logging.FieldImpact, "turn will be missing from the podcast"),
	)
	return result
}

// retryDelay is base*2^(attempt-1), replaced by a server-suggested wait when
// present, and capped at BackoffMax.
func (s *Synthesizer) retryDelay(attempt int, err error) time.Duration {
	var hinted interface{ RetryDelay() time.Duration }
	if errors.As(err, &hinted) {
		if d := hinted.RetryDelay(); d > 0 {
			return min(d, s.opts.BackoffMax)
		}
	}
	delay := s.opts.BackoffBase
	for i := 1; i < attempt; i++ {
		if delay >= s.opts.BackoffMax/2 {
			return s.opts.BackoffMax
		}
		delay *= 2
	}
	return min(delay, s.opts.BackoffMax)
}

func isRateLimited(err error) bool {
	if errors.Is(err, services.ErrRateLimited) {
		return true
	}
	var limited interface{ RateLimited() bool }
	return errors.As(err, &limited) && limited.RateLimited()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
