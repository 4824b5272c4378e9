package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"pdfpod/internal/logging"
	"pdfpod/internal/services"
	"pdfpod/internal/services/llm"
)

const (
	brainstormTool = "generate_scratchpad_ideas"
	dialogueTool   = "generate_dialogue"
)

// ToolCompleter issues a chat completion that must call the given tool.
type ToolCompleter interface {
	CompleteTool(ctx context.Context, systemPrompt, userPrompt string, tool llm.Tool) (string, error)
}

// Ideas is the brainstorm produced before the dialogue is written.
type Ideas struct {
	AboutTheDocument string          `json:"about_the_document"`
	Ideas            []Idea          `json:"ideas"`
	Speakers         []SpeakerChoice `json:"speakers"`
}

// Idea is one brainstormed angle on the document.
type Idea struct {
	Observation string `json:"observation"`
	Idea        string `json:"idea"`
	Outline     string `json:"outline"`
	KeyInsights string `json:"key_insights"`
}

// SpeakerChoice casts a speaker to a voice.
type SpeakerChoice struct {
	Name    string `json:"speaker_name"`
	VoiceID string `json:"speaker_voice_id"`
}

// Generator writes a validated Script from document text in two tool calls:
// a brainstorm, then the dialogue itself.
type Generator struct {
	client ToolCompleter
	voices []Voice
	limits Limits
	logger *slog.Logger
}

// NewGenerator constructs a generator. The voice list doubles as the
// enumerated set generated turns are validated against.
func NewGenerator(client ToolCompleter, voices []Voice, maxTextLength, maxOverlapDepth int, logger *slog.Logger) *Generator {
	ids := make([]string, 0, len(voices))
	for _, v := range voices {
		ids = append(ids, v.ID)
	}
	return &Generator{
		client: client,
		voices: append([]Voice(nil), voices...),
		limits: Limits{MaxTextLength: maxTextLength, MaxOverlapDepth: maxOverlapDepth, VoiceIDs: ids},
		logger: logging.NewComponentLogger(logger, "dialogue"),
	}
}

// Limits returns the limits generated scripts are validated against.
func (g *Generator) Limits() Limits {
	return g.limits
}

// Brainstorm runs the first pass and returns the parsed ideas.
func (g *Generator) Brainstorm(ctx context.Context, text, instruction string) (Ideas, error) {
	raw, err := g.client.CompleteTool(ctx, g.system(), brainstormPrompt(text, instruction), llm.Tool{
		Name:        brainstormTool,
		Description: "Brainstorm ideas and cast speakers for a podcast dialogue about the input text",
		Parameters:  ideasSchema(g.limits.VoiceIDs),
	})
	if err != nil {
		return Ideas{}, services.Wrap(services.ErrExternalService, "dialogue", "brainstorm", "language model request failed", err)
	}
	var ideas Ideas
	if err := llm.DecodeLLMJSON(raw, &ideas); err != nil {
		return Ideas{}, services.Wrap(services.ErrValidation, "dialogue", "brainstorm", "unparseable brainstorm", err)
	}
	return ideas, nil
}

// Generate brainstorms, writes, and validates a dialogue for text.
func (g *Generator) Generate(ctx context.Context, text, instruction string) (Script, error) {
	if strings.TrimSpace(text) == "" {
		return Script{}, services.Wrap(services.ErrValidation, "dialogue", "generate", "document text is empty", nil)
	}

	ideas, err := g.Brainstorm(ctx, text, instruction)
	if err != nil {
		return Script{}, err
	}
	g.logger.Info("brainstorm complete",
		logging.Int("idea_count", len(ideas.Ideas)),
		logging.Int("speaker_count", len(ideas.Speakers)),
		logging.String(logging.FieldEventType, "dialogue_brainstormed"),
	)
	scratchpad, err := json.MarshalIndent(ideas, "", "  ")
	if err != nil {
		return Script{}, fmt.Errorf("encode scratchpad: %w", err)
	}

	raw, err := g.client.CompleteTool(ctx, g.system(), dialoguePrompt(text, string(scratchpad), instruction), llm.Tool{
		Name:        dialogueTool,
		Description: "Write the podcast dialogue as nested JSON turns",
		Parameters:  dialogueSchema(g.limits.VoiceIDs, g.limits.MaxTextLength, g.limits.MaxOverlapDepth),
	})
	if err != nil {
		return Script{}, services.Wrap(services.ErrExternalService, "dialogue", "generate", "language model request failed", err)
	}

	var script Script
	if err := llm.DecodeLLMJSON(raw, &script); err != nil {
		return Script{}, services.Wrap(services.ErrValidation, "dialogue", "generate", "unparseable dialogue", err)
	}
	script = script.Normalize()
	if err := Validate(script, g.limits); err != nil {
		for _, issue := range Issues(err) {
			g.logger.Debug("dialogue issue", logging.String("path", issue.Path), logging.String("problem", issue.Message))
		}
		return Script{}, err
	}
	return script, nil
}

func (g *Generator) system() string {
	return systemPrompt(g.limits.MaxTextLength, g.voices)
}
