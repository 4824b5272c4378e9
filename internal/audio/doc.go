// Package audio holds the PCM primitives the podcast timeline is built from.
//
// A Clip is interleaved integer PCM plus its Format. Clips are decoded from
// and encoded to WAV through github.com/go-audio/wav. Append joins clips with
// an optional linear crossfade, Overlay mixes one clip into another at a
// millisecond offset without extending it, and Convert brings clips of a
// different rate, channel layout, or bit depth into a common format.
// Durations are whole milliseconds, truncated.
package audio
