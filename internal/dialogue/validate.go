package dialogue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"pdfpod/internal/services"
)

// Limits bounds what a script may contain.
type Limits struct {
	// MaxTextLength is measured in characters (runes).
	MaxTextLength int
	// MaxOverlapDepth counts nesting below a top-level turn; 0 forbids overlaps.
	MaxOverlapDepth int
	// VoiceIDs is the enumerated voice set. Empty means any non-blank ID.
	VoiceIDs []string
}

// Issue is a single validation failure located by a JSON-style path.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationError lists every issue found in a script.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	const shown = 5
	parts := make([]string, 0, shown)
	for i, issue := range e.Issues {
		if i == shown {
			parts = append(parts, fmt.Sprintf("and %d more", len(e.Issues)-shown))
			break
		}
		parts = append(parts, issue.String())
	}
	return "invalid dialogue: " + strings.Join(parts, "; ")
}

// Validate checks script against limits. The returned error wraps
// services.ErrValidation and, via errors.As, a *ValidationError.
func Validate(script Script, limits Limits) error {
	var issues []Issue
	if len(script.Turns) == 0 {
		issues = append(issues, Issue{Path: "dialogue", Message: "no turns"})
	}
	for i, turn := range script.Turns {
		issues = validateTurn(issues, turn, fmt.Sprintf("dialogue[%d]", i), 0, limits)
	}
	if len(issues) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "dialogue", "validate", "dialogue rejected", &ValidationError{Issues: issues})
}

func validateTurn(issues []Issue, turn Turn, path string, depth int, limits Limits) []Issue {
	if depth > limits.MaxOverlapDepth {
		return append(issues, Issue{Path: path, Message: fmt.Sprintf("overlap nesting exceeds %d", limits.MaxOverlapDepth)})
	}
	if strings.TrimSpace(turn.Speaker) == "" {
		issues = append(issues, Issue{Path: path + ".speaker", Message: "required"})
	}
	switch n := utf8.RuneCountInString(turn.Text); {
	case strings.TrimSpace(turn.Text) == "":
		issues = append(issues, Issue{Path: path + ".text", Message: "required"})
	case limits.MaxTextLength > 0 && n > limits.MaxTextLength:
		issues = append(issues, Issue{Path: path + ".text", Message: fmt.Sprintf("%d characters exceeds limit %d", n, limits.MaxTextLength)})
	}
	switch {
	case strings.TrimSpace(turn.VoiceID) == "":
		issues = append(issues, Issue{Path: path + ".speaker_voice_id", Message: "required"})
	case len(limits.VoiceIDs) > 0 && !slices.Contains(limits.VoiceIDs, turn.VoiceID):
		issues = append(issues, Issue{Path: path + ".speaker_voice_id", Message: fmt.Sprintf("unknown voice %q", turn.VoiceID)})
	}
	for i, overlap := range turn.Overlaps {
		issues = validateTurn(issues, overlap, fmt.Sprintf("%s.overlaps[%d]", path, i), depth+1, limits)
	}
	return issues
}

// Issues extracts the validation issues from err, if any.
func Issues(err error) []Issue {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Issues
	}
	return nil
}
