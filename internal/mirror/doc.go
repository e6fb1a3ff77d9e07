// Package mirror keeps one external flat backup file synchronized with
// the canonical store and absorbs out-of-band edits back into it.
//
// # Overview
//
// The mirror file lives in a user-configured backup directory, usually
// one synced by Dropbox, Drive, or OneDrive, so another machine can
// edit it out-of-band. Every successful store mutation rewrites the
// whole file; a filesystem watch picks up external changes and runs
// them through the last-write-wins merge.
//
// # Envelope
//
// Writers always emit the versioned envelope:
//
//	{ "version": "1.0", "timestamp": "2026-08-30T10:00:00Z",
//	  "data": [ {..folder.., "type":"folder"}, {..snippet..}, ... ] }
//
// Readers additionally accept the split {folders, snippets} object and
// a bare mixed array for backward compatibility. Decoding is
// all-or-nothing: one bad record rejects the whole file.
//
// # Feedback Loop Guard
//
// A naive implementation loops forever: write triggers watch triggers
// merge triggers write. The writer records the sha256 of every file it
// produces in the state ledger; the absorb path skips any file whose
// hash matches, so only genuinely external content is merged.
//
// # Failure Semantics
//
// Mirroring is best-effort. An unreachable mirror location never fails
// the store mutation that triggered it, and a malformed mirror file is
// logged and skipped, never allowed to corrupt the canonical store.
package mirror
