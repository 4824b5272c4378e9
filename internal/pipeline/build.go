package pipeline

import (
	"log/slog"
	"time"

	"pdfpod/internal/config"
	"pdfpod/internal/dialogue"
	"pdfpod/internal/logging"
	"pdfpod/internal/notifications"
	"pdfpod/internal/pdftext"
	"pdfpod/internal/services/elevenlabs"
	"pdfpod/internal/services/llm"
	"pdfpod/internal/synth"
)

// NewFromConfig wires the production collaborators. The speech key is
// required; callers that generate dialogue must also check cfg.RequireLLM.
func NewFromConfig(cfg *config.Config, recorder Recorder, logger *slog.Logger) (*Orchestrator, error) {
	if err := cfg.RequireTTS(); err != nil {
		return nil, err
	}
	tts, err := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:          cfg.TTS.APIKey,
		BaseURL:         cfg.TTS.BaseURL,
		ModelID:         cfg.TTS.ModelID,
		OutputFormat:    cfg.TTS.OutputFormat,
		Stability:       cfg.TTS.Stability,
		SimilarityBoost: cfg.TTS.SimilarityBoost,
		Seed:            cfg.TTS.Seed,
		TimeoutSeconds:  cfg.TTS.TimeoutSeconds,
	})
	if err != nil {
		return nil, err
	}

	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		MaxTokens:      cfg.LLM.MaxTokens,
	})
	writer := dialogue.NewGenerator(chat, Voices(cfg), cfg.Dialogue.MaxTextLength, cfg.Dialogue.MaxOverlapDepth, logger)

	deps := Dependencies{
		Extractor: pdftext.NewExtractor(logger),
		Writer:    writer,
		Speaker:   synth.ElevenLabs(tts),
		Recorder:  recorder,
		Notifier:  notifier(cfg),
		Limits:    writer.Limits(),
		Synthesis: synth.Options{
			Concurrency:       cfg.Synthesis.Concurrency,
			MaxAttempts:       cfg.Synthesis.MaxAttempts,
			BackoffBase:       cfg.Synthesis.BackoffBase(),
			BackoffMax:        cfg.Synthesis.BackoffMax(),
			RequestsPerMinute: cfg.Synthesis.RequestsPerMinute,
		},
		LogLevel: logging.ParseLevel(cfg.Logging.Level),
	}
	applyComposition(&deps, cfg)
	return New(deps, logger), nil
}

func notifier(cfg *config.Config) Notifier {
	svc := notifications.NewService(cfg)
	if !notifications.Enabled(svc) {
		return nil
	}
	return svc
}

// NewOffline builds an orchestrator that can only Recompose. It needs no
// service credentials.
func NewOffline(cfg *config.Config, logger *slog.Logger) *Orchestrator {
	deps := Dependencies{
		Limits:   scriptLimits(cfg),
		LogLevel: logging.ParseLevel(cfg.Logging.Level),
	}
	applyComposition(&deps, cfg)
	return New(deps, logger)
}

func applyComposition(deps *Dependencies, cfg *config.Config) {
	deps.OverlapLead = time.Duration(cfg.Composition.OverlapLeadMS) * time.Millisecond
	deps.CrossfadeCap = time.Duration(cfg.Composition.CrossfadeCapMS) * time.Millisecond
	deps.MinLength = time.Duration(cfg.Composition.MinLengthMS) * time.Millisecond
	deps.OutputRoot = cfg.Paths.OutputDir
	deps.OutputFile = cfg.Composition.OutputFile
}

// Voices converts the configured voice set for the dialogue generator.
func Voices(cfg *config.Config) []dialogue.Voice {
	voices := make([]dialogue.Voice, 0, len(cfg.Dialogue.Voices))
	for _, v := range cfg.Dialogue.Voices {
		voices = append(voices, dialogue.Voice{Name: v.Name, ID: v.ID, Description: v.Description})
	}
	return voices
}

// scriptLimits mirrors the limits the dialogue generator enforces.
func scriptLimits(cfg *config.Config) dialogue.Limits {
	voices := Voices(cfg)
	ids := make([]string, 0, len(voices))
	for _, v := range voices {
		ids = append(ids, v.ID)
	}
	return dialogue.Limits{
		MaxTextLength:   cfg.Dialogue.MaxTextLength,
		MaxOverlapDepth: cfg.Dialogue.MaxOverlapDepth,
		VoiceIDs:        ids,
	}
}
