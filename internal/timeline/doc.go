// Package timeline assembles synthesized clips into one podcast recording.
//
// The Composer walks the dialogue script itself, not the flat job list, so
// overlap structure survives: each turn is merged with its overlaps
// (recursively) and the merged turns are appended to the timeline with a
// short crossfade. Missing clips degrade the output instead of failing it.
package timeline
