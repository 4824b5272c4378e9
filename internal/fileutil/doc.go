// Package fileutil holds the atomic write and verified copy helpers shared by
// the clip cache, the dialogue writer, and podcast export.
package fileutil
