// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and request
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures so the
//     pipeline and job store can classify them consistently.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
