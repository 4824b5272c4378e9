package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pdfpod/internal/pipeline"
)

type clipCounts struct {
	Total       int `json:"total"`
	Synthesized int `json:"synthesized"`
	Cached      int `json:"cached"`
	Duplicates  int `json:"duplicates"`
	Failed      int `json:"failed"`
}

type resultView struct {
	RequestID    string     `json:"request_id,omitempty"`
	Dir          string     `json:"dir"`
	Dialogue     string     `json:"dialogue"`
	Output       string     `json:"output"`
	CopiedTo     string     `json:"copied_to,omitempty"`
	DurationMS   int        `json:"duration_ms"`
	Clips        clipCounts `json:"clips"`
	TurnsSkipped int        `json:"turns_skipped"`
}

func newResultView(result *pipeline.Result, copied string) resultView {
	report := result.Synthesis
	return resultView{
		RequestID:  result.RequestID,
		Dir:        result.Dir,
		Dialogue:   result.DialoguePath,
		Output:     result.OutputPath,
		CopiedTo:   copied,
		DurationMS: result.DurationMS,
		Clips: clipCounts{
			Total:       len(report.Results),
			Synthesized: report.Synthesized,
			Cached:      report.Cached,
			Duplicates:  report.Duplicates,
			Failed:      report.Failed,
		},
		TurnsSkipped: result.Composition.TurnsSkipped + result.Composition.OverlapsSkipped,
	}
}

func printResult(cmd *cobra.Command, result *pipeline.Result, copied string, asJSON bool) error {
	view := newResultView(result, copied)
	if asJSON {
		return writeJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Podcast ready: %s\n", view.Output)
	if view.RequestID != "" {
		fmt.Fprintf(out, "  Request:   %s\n", view.RequestID)
	}
	fmt.Fprintf(out, "  Dialogue:  %s\n", view.Dialogue)
	fmt.Fprintf(out, "  Duration:  %s\n", formatDurationMS(view.DurationMS))
	if view.Clips.Total > 0 {
		fmt.Fprintf(out, "  Clips:     %d synthesized, %d cached, %d duplicate, %d failed\n",
			view.Clips.Synthesized, view.Clips.Cached, view.Clips.Duplicates, view.Clips.Failed)
	}
	if view.TurnsSkipped > 0 {
		fmt.Fprintf(out, "  Skipped:   %d line(s) had no clip\n", view.TurnsSkipped)
	}
	if view.CopiedTo != "" {
		fmt.Fprintf(out, "  Copied to: %s\n", view.CopiedTo)
	}
	return nil
}

func formatDurationMS(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	if d >= time.Minute {
		d = d.Round(time.Second)
	}
	return d.String()
}
