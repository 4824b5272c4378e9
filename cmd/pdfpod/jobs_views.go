package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pdfpod/internal/jobs"
)

type jobView struct {
	ID           int64      `json:"id"`
	RequestID    string     `json:"request_id"`
	Status       string     `json:"status"`
	Stage        string     `json:"stage,omitempty"`
	Source       string     `json:"source"`
	Instruction  string     `json:"instruction,omitempty"`
	OutputDir    string     `json:"output_dir"`
	OutputFile   string     `json:"output_file,omitempty"`
	Clips        clipCounts `json:"clips"`
	DurationMS   int        `json:"duration_ms"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func newJobView(job *jobs.Job) jobView {
	return jobView{
		ID:          job.ID,
		RequestID:   job.RequestID,
		Status:      string(job.Status),
		Stage:       job.Stage,
		Source:      job.SourcePath,
		Instruction: job.Instruction,
		OutputDir:   job.OutputDir,
		OutputFile:  job.OutputFile,
		Clips: clipCounts{
			Total:       job.ClipsTotal,
			Synthesized: job.ClipsSynthesized,
			Cached:      job.ClipsCached,
			Failed:      job.ClipsFailed,
		},
		DurationMS:   job.DurationMS,
		ErrorKind:    job.ErrorKind,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
}

func statusLabel(status jobs.Status) string {
	return cases.Title(language.Und).String(string(status))
}

func buildJobRows(items []*jobs.Job) [][]string {
	rows := make([][]string, 0, len(items))
	for _, job := range items {
		clips := "-"
		if job.ClipsTotal > 0 {
			clips = fmt.Sprintf("%d/%d", job.ClipsSynthesized+job.ClipsCached, job.ClipsTotal)
		}
		duration := "-"
		if job.DurationMS > 0 {
			duration = formatDurationMS(job.DurationMS)
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.RequestID,
			statusLabel(job.Status),
			clips,
			duration,
			filepath.Base(job.SourcePath),
			humanize.Time(job.UpdatedAt),
		})
	}
	return rows
}

func buildStatusRows(stats map[jobs.Status]int) [][]string {
	var rows [][]string
	for _, status := range jobs.AllStatuses() {
		if count := stats[status]; count > 0 {
			rows = append(rows, []string{statusLabel(status), strconv.Itoa(count)})
		}
	}
	return rows
}

func describeJob(job *jobs.Job) []string {
	lines := []string{
		fmt.Sprintf("Request:  %s", job.RequestID),
		fmt.Sprintf("Status:   %s", statusLabel(job.Status)),
		fmt.Sprintf("Source:   %s", job.SourcePath),
		fmt.Sprintf("Folder:   %s", job.OutputDir),
	}
	if job.Stage != "" && !job.Status.IsTerminal() {
		lines = append(lines, fmt.Sprintf("Stage:    %s", job.Stage))
	}
	if job.Instruction != "" {
		lines = append(lines, fmt.Sprintf("Guidance: %s", job.Instruction))
	}
	if job.ClipsTotal > 0 {
		lines = append(lines, fmt.Sprintf("Clips:    %d total, %d synthesized, %d cached, %d failed",
			job.ClipsTotal, job.ClipsSynthesized, job.ClipsCached, job.ClipsFailed))
	}
	if job.OutputFile != "" {
		lines = append(lines, fmt.Sprintf("Podcast:  %s (%s)", job.OutputFile, formatDurationMS(job.DurationMS)))
	}
	if job.ErrorMessage != "" {
		lines = append(lines, fmt.Sprintf("Error:    [%s at %s] %s", job.ErrorKind, job.Stage, job.ErrorMessage))
	}
	lines = append(lines,
		fmt.Sprintf("Created:  %s (%s)", job.CreatedAt.Local().Format(time.DateTime), humanize.Time(job.CreatedAt)),
		fmt.Sprintf("Elapsed:  %s", job.Elapsed().Round(time.Second)),
	)
	return lines
}
