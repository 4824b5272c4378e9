// Package jobs keeps a history of podcast requests in SQLite.
//
// Each request gets one row that follows it through the pipeline stages and
// ends completed or failed, with clip counts and the error classification.
// The Store satisfies pipeline.Recorder, and the CLI reads it for
// `pdfpod jobs`.
//
// Schema changes bump schemaVersion; users delete jobs.db to adopt them.
package jobs
