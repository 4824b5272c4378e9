// Package pipeline runs one podcast request end to end:
// extract → dialogue → synthesize → compose → export.
//
// Each request owns a directory output_<uuid> under the output root holding
// the validated dialogue.json, the clip cache, a JSON request log, and the
// finished WAV. Synthesis fully settles before composition starts. Individual
// clip failures degrade the output; everything else is fatal and recorded.
package pipeline
