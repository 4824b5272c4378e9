package jobs

import (
	"strings"
	"time"
)

// Status tracks where a request is in the pipeline.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusGenerating   Status = "generating"
	StatusSynthesizing Status = "synthesizing"
	StatusComposing    Status = "composing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusGenerating,
	StatusSynthesizing,
	StatusComposing,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every status in pipeline order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusForStage maps a pipeline stage name to its in-progress status.
func StatusForStage(stage string) Status {
	switch stage {
	case "extract":
		return StatusExtracting
	case "dialogue":
		return StatusGenerating
	case "synthesize":
		return StatusSynthesizing
	case "compose", "export":
		return StatusComposing
	default:
		return StatusPending
	}
}

// Job is one podcast request.
type Job struct {
	ID          int64
	RequestID   string
	SourcePath  string
	Instruction string
	OutputDir   string
	OutputFile  string
	Status      Status
	Stage       string

	ClipsTotal       int
	ClipsSynthesized int
	ClipsCached      int
	ClipsFailed      int
	DurationMS       int

	ErrorKind    string
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Elapsed is the time between creation and the last update.
func (j *Job) Elapsed() time.Duration {
	if j == nil || j.CreatedAt.IsZero() || j.UpdatedAt.Before(j.CreatedAt) {
		return 0
	}
	return j.UpdatedAt.Sub(j.CreatedAt)
}
