// Package preflight provides readiness checks for the filesystem and the
// external services pdfpod depends on.
//
// The generate command runs the local checks before each request so a full
// disk or unwritable output directory fails fast, before any paid API call.
// `pdfpod check` runs everything, including live probes of the language
// model and speech endpoints.
package preflight
