// Package synth turns flattened dialogue jobs into clip files.
//
// A Synthesizer admits at most Concurrency jobs at a time, consults the
// request's clip cache before calling the speech service, submits each unique
// (speaker, text) pair once per run, and retries only rate-limit failures
// with capped exponential backoff. Run returns after every job has settled.
package synth
