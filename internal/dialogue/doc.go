// Package dialogue models the podcast script and everything done to it before
// audio exists.
//
// A Script is a list of Turns; each Turn may carry Overlaps that are spoken
// over its ending, nested to a configured depth. Scripts round-trip through
// the {"dialogue": [...]} JSON shape, are checked by Validate against text
// length, nesting depth, and the enumerated voice set, and are flattened into
// synthesis Jobs in depth-first document order.
//
// Generator produces scripts from document text with two forced tool calls to
// a language model: a brainstorm that casts speakers, then the dialogue.
package dialogue
