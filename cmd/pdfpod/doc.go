// Package main hosts the pdfpod CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the structured
// logger, and hands requests to internal/pipeline. Commands stay thin: the
// work lives in the internal packages and is surfaced here through flags,
// tables, and status lines.
package main
