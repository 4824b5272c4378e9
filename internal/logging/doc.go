// Package logging builds the slog loggers used across pdfpod.
//
// New and NewFromConfig produce either a console handler (one readable line per
// record, coloured on terminals) or a JSON handler with ts/level/msg keys.
// Helpers in this package standardize field names (request_id, stage, speaker,
// text_hash), enforce event_type/error_hint/impact on warnings, attach context
// values stored through the services package, and sample progress updates so
// long synthesis runs do not flood the log. TeeLogger mirrors records into a
// per-request log file.
package logging
