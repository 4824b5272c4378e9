// Package clipcache stores synthesized speech clips by content.
//
// Every (speaker, text) pair maps to a fixed file name derived from a hash of
// both fields, so a line spoken twice is synthesized once and a rerun over the
// same request directory makes no new service calls. The synthesizer writes
// through Store while holding Lock; the composer reads through Lookup with the
// same key function.
package clipcache
