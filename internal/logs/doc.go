// Package logs reads the tail of pdfpod log files for `pdfpod logs`.
//
// Tail keeps memory bounded with a ring of the last N lines and reports the
// byte offset it stopped at, so Follow can poll from there until the
// context ends.
package logs
