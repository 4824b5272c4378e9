package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfpod/internal/clipcache"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/logging"
	"pdfpod/internal/pdftext"
	"pdfpod/internal/services"
	"pdfpod/internal/synth"
	"pdfpod/internal/timeline"
)

// Stage names, also persisted by the Recorder.
const (
	StageExtract    = "extract"
	StageDialogue   = "dialogue"
	StageSynthesize = "synthesize"
	StageCompose    = "compose"
	StageExport     = "export"
)

const (
	dialogueFile   = "dialogue.json"
	clipsDir       = "clips"
	requestLogFile = "request.log"
	requestPrefix  = "output_"
)

// RequestLogPath returns the per-request log inside a request directory.
func RequestLogPath(dir string) string {
	return filepath.Join(dir, requestLogFile)
}

// Extractor returns the text pages of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// DialogueWriter produces a validated script for document text.
type DialogueWriter interface {
	Generate(ctx context.Context, text, instruction string) (dialogue.Script, error)
}

// Recorder persists request progress. Recording errors are logged and never
// fail the request.
type Recorder interface {
	// RecordStart returns the persisted job id, or 0 when the store has none.
	RecordStart(ctx context.Context, requestID, sourcePath, instruction, outputDir string) (int64, error)
	RecordStage(ctx context.Context, requestID, stage string) error
	RecordClips(ctx context.Context, requestID string, total, synthesized, cached, failed int) error
	RecordDone(ctx context.Context, requestID, outputFile string, durationMS int) error
	RecordFailure(ctx context.Context, requestID, stage, kind, message string) error
}

// Notifier announces the outcome of a request.
type Notifier interface {
	NotifyPodcastReady(ctx context.Context, source, output string, duration time.Duration) error
	NotifyRequestFailed(ctx context.Context, source, stage string, err error) error
}

// Dependencies wires an Orchestrator.
type Dependencies struct {
	Extractor Extractor
	Writer    DialogueWriter
	Speaker   synth.Speaker
	// Recorder is optional.
	Recorder Recorder
	Notifier Notifier

	Limits    dialogue.Limits
	Synthesis synth.Options

	OverlapLead  time.Duration
	CrossfadeCap time.Duration
	MinLength    time.Duration

	OutputRoot string
	OutputFile string
	LogLevel   slog.Leveler

	// NewID overrides request id generation in tests.
	NewID func() string
}

// Request asks for one podcast.
type Request struct {
	PDFPath     string
	Instruction string
	// OutputRoot overrides the configured output root for this request.
	OutputRoot string
}

// Result describes a finished request.
type Result struct {
	RequestID    string
	Dir          string
	DialoguePath string
	OutputPath   string
	Script       dialogue.Script
	Synthesis    synth.Report
	Composition  timeline.Stats
	DurationMS   int
}

// Orchestrator runs requests.
type Orchestrator struct {
	deps   Dependencies
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(deps Dependencies, logger *slog.Logger) *Orchestrator {
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	if strings.TrimSpace(deps.OutputFile) == "" {
		deps.OutputFile = "full_podcast.wav"
	}
	if deps.LogLevel == nil {
		deps.LogLevel = slog.LevelInfo
	}
	return &Orchestrator{deps: deps, logger: logging.NewComponentLogger(logger, "pipeline")}
}

// Run converts a PDF into a podcast.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.PDFPath) == "" {
		return nil, services.Wrap(services.ErrValidation, StageExtract, "request", "pdf path is required", nil)
	}
	run, err := o.begin(ctx, req.OutputRoot, "")
	if err != nil {
		return nil, err
	}
	defer run.close()
	run.start(req.PDFPath, req.Instruction)
	run.logger.Info("request started",
		logging.String("pdf", req.PDFPath),
		logging.String("dir", run.dir),
		logging.String(logging.FieldEventType, "request_started"),
	)

	stageCtx := run.stage(ctx, StageExtract)
	pages, err := o.deps.Extractor.Extract(stageCtx, req.PDFPath)
	if err != nil {
		return nil, run.fail(StageExtract, err)
	}
	text := pdftext.Join(pages)
	if strings.TrimSpace(text) == "" {
		return nil, run.fail(StageExtract, services.Wrap(services.ErrValidation, StageExtract, "text", "pdf has no extractable text", nil))
	}

	stageCtx = run.stage(ctx, StageDialogue)
	script, err := o.deps.Writer.Generate(stageCtx, text, req.Instruction)
	if err != nil {
		return nil, run.fail(StageDialogue, err)
	}
	return o.produce(ctx, run, script)
}

// RunScript synthesizes and composes an existing script, skipping extraction
// and generation. When dir is non-empty it is used as the request directory,
// so clips already synthesized there are reused.
func (o *Orchestrator) RunScript(ctx context.Context, script dialogue.Script, dir string) (*Result, error) {
	script = script.Normalize()
	if err := dialogue.Validate(script, o.deps.Limits); err != nil {
		return nil, err
	}
	run, err := o.begin(ctx, "", dir)
	if err != nil {
		return nil, err
	}
	defer run.close()
	run.start(filepath.Join(run.dir, dialogueFile), "")
	return o.produce(ctx, run, script)
}

// Recompose rebuilds the podcast of an existing request directory from its
// saved script and clips. The script is validated like any other input.
// Nothing is synthesized; lines without a clip are skipped.
func (o *Orchestrator) Recompose(ctx context.Context, dir string) (*Result, error) {
	result := &Result{
		Dir:          dir,
		DialoguePath: filepath.Join(dir, dialogueFile),
		OutputPath:   filepath.Join(dir, o.deps.OutputFile),
	}
	script, err := dialogue.Load(result.DialoguePath)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, fs.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, StageCompose, "load", "read dialogue file", err)
	}
	result.Script = script.Normalize()
	if err := dialogue.Validate(result.Script, o.deps.Limits); err != nil {
		return nil, err
	}

	cache, err := clipcache.New(filepath.Join(dir, clipsDir))
	if err != nil {
		return nil, err
	}
	composer := timeline.NewComposer(o.deps.OverlapLead, o.deps.CrossfadeCap, o.deps.MinLength, o.logger)
	clip, stats, err := composer.Compose(ctx, result.Script, cache.Lookup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageCompose, err)
	}
	result.Composition = stats
	if err := timeline.Export(clip, result.OutputPath); err != nil {
		return nil, fmt.Errorf("%s: %w", StageExport, err)
	}
	result.DurationMS = clip.DurationMS()
	o.logger.Info("podcast recomposed",
		logging.String("output", result.OutputPath),
		logging.Int("turns_skipped", stats.TurnsSkipped),
		logging.Duration("duration", time.Duration(result.DurationMS)*time.Millisecond),
		logging.String(logging.FieldEventType, "request_recomposed"),
	)
	return result, nil
}

// produce runs the shared tail of a request: persist the script, synthesize
// every line, compose, and export.
func (o *Orchestrator) produce(ctx context.Context, run *request, script dialogue.Script) (*Result, error) {
	result := &Result{
		RequestID:    run.id,
		Dir:          run.dir,
		DialoguePath: filepath.Join(run.dir, dialogueFile),
		Script:       script,
	}
	if err := dialogue.Save(result.DialoguePath, script); err != nil {
		return nil, run.fail(StageDialogue, services.Wrap(services.ErrTransient, StageDialogue, "save", "write dialogue file", err))
	}

	stageCtx := run.stage(ctx, StageSynthesize)
	cache, err := clipcache.New(filepath.Join(run.dir, clipsDir))
	if err != nil {
		return nil, run.fail(StageSynthesize, err)
	}
	jobs := dialogue.Flatten(script)
	run.logger.Info("synthesizing dialogue",
		logging.Int("clips", len(jobs)),
		logging.String("speakers", strings.Join(dialogue.Speakers(script), ", ")),
		logging.String(logging.FieldEventType, "synthesis_started"),
	)
	synthesizer := synth.New(o.deps.Speaker, cache, o.deps.Synthesis, run.logger)
	report := synthesizer.Run(stageCtx, jobs)
	result.Synthesis = report
	run.record(func(r Recorder, ctx context.Context) error {
		return r.RecordClips(ctx, run.id, len(jobs), report.Synthesized, report.Cached, report.Failed)
	})
	if err := ctx.Err(); err != nil {
		return nil, run.fail(StageSynthesize, err)
	}
	if report.Failed > 0 {
		logging.WarnWithContext(run.logger, "some clips failed to synthesize", "synthesis_partial",
			logging.Int("failed", report.Failed),
			logging.Int("clips", len(jobs)),
			logging.String(logging.FieldImpact, "failed lines are omitted from the podcast"),
			logging.String(logging.FieldErrorHint, "re-run with `pdfpod synthesize` on the request directory"),
		)
	}

	stageCtx = run.stage(ctx, StageCompose)
	composer := timeline.NewComposer(o.deps.OverlapLead, o.deps.CrossfadeCap, o.deps.MinLength, run.logger)
	clip, stats, err := composer.Compose(stageCtx, script, cache.Lookup)
	if err != nil {
		return nil, run.fail(StageCompose, err)
	}
	result.Composition = stats

	run.stage(ctx, StageExport)
	result.OutputPath = filepath.Join(run.dir, o.deps.OutputFile)
	if err := timeline.Export(clip, result.OutputPath); err != nil {
		return nil, run.fail(StageExport, err)
	}
	result.DurationMS = clip.DurationMS()

	run.record(func(r Recorder, ctx context.Context) error {
		return r.RecordDone(ctx, run.id, result.OutputPath, result.DurationMS)
	})
	run.notify(func(n Notifier, ctx context.Context) error {
		return n.NotifyPodcastReady(ctx, run.source, result.OutputPath, time.Duration(result.DurationMS)*time.Millisecond)
	})
	run.logger.Info("podcast ready",
		logging.String("output", result.OutputPath),
		logging.Duration("duration", time.Duration(result.DurationMS)*time.Millisecond),
		logging.Int("clips_synthesized", report.Synthesized),
		logging.Int("clips_cached", report.Cached),
		logging.Int("clips_failed", report.Failed),
		logging.String(logging.FieldEventType, "request_completed"),
	)
	return result, nil
}

// request carries per-request state shared by the stages.
type request struct {
	id       string
	jobID    int64
	dir      string
	logger   *slog.Logger
	closer   io.Closer
	ctx      context.Context
	source   string
	recorder Recorder
	notifier Notifier
}

func (o *Orchestrator) begin(ctx context.Context, root, dir string) (*request, error) {
	id := o.deps.NewID()
	if dir == "" {
		if root == "" {
			root = o.deps.OutputRoot
		}
		if root == "" {
			return nil, services.Wrap(services.ErrConfiguration, "", "request", "output root is not configured", nil)
		}
		dir = filepath.Join(root, requestPrefix+id)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "request", "create request directory", err)
	}

	ctx = services.WithRequestID(ctx, id)
	logger, closer, err := logging.OpenRequestLog(o.logger, filepath.Join(dir, requestLogFile), o.deps.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("request log: %w", err)
	}
	return &request{
		id:       id,
		dir:      dir,
		logger:   logging.WithContext(ctx, logger),
		closer:   closer,
		ctx:      context.WithoutCancel(ctx),
		recorder: o.deps.Recorder,
		notifier: o.deps.Notifier,
	}, nil
}

// start persists the request and tags later log lines and stage contexts with
// the stored job id.
func (r *request) start(source, instruction string) {
	r.source = source
	r.record(func(rec Recorder, ctx context.Context) error {
		id, err := rec.RecordStart(ctx, r.id, source, instruction, r.dir)
		if err != nil || id <= 0 {
			return err
		}
		r.jobID = id
		r.ctx = services.WithJobID(r.ctx, id)
		r.logger = r.logger.With(logging.Int64(logging.FieldJobID, id))
		return nil
	})
}

func (r *request) stage(ctx context.Context, stage string) context.Context {
	r.record(func(rec Recorder, ctx context.Context) error {
		return rec.RecordStage(ctx, r.id, stage)
	})
	r.logger.Debug("stage started", logging.String(logging.FieldStage, stage))
	ctx = services.WithJobID(services.WithRequestID(ctx, r.id), r.jobID)
	return services.WithStage(ctx, stage)
}

// record runs fn against the recorder with a context that survives
// cancellation of the request.
func (r *request) record(fn func(Recorder, context.Context) error) {
	if r.recorder == nil {
		return
	}
	if err := fn(r.recorder, r.ctx); err != nil {
		logging.WarnWithContext(r.logger, "could not record request progress", "record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "`pdfpod jobs` may show stale status"),
		)
	}
}

// notify delivers a notification; failures only cost a warning.
func (r *request) notify(fn func(Notifier, context.Context) error) {
	if r.notifier == nil {
		return
	}
	if err := fn(r.notifier, r.ctx); err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "request outcome was not announced"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (r *request) fail(stage string, err error) error {
	kind := services.Classify(err)
	r.record(func(rec Recorder, ctx context.Context) error {
		return rec.RecordFailure(ctx, r.id, stage, kind, err.Error())
	})
	r.notify(func(n Notifier, ctx context.Context) error {
		return n.NotifyRequestFailed(ctx, r.source, stage, err)
	})
	logging.ErrorWithContext(r.logger, "request failed", "request_failed",
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
	)
	return fmt.Errorf("%s: %w", stage, err)
}

func (r *request) close() {
	if r.closer != nil {
		_ = r.closer.Close()
	}
}
