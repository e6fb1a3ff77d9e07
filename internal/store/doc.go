// Package store implements the canonical collection store.
//
// # Overview
//
// The store owns the authoritative copy of the folder and snippet
// collections, persisted as one JSON document that is read and written
// wholesale. There are no partial-record patches at this boundary:
// higher-level updates read-modify-write a full record.
//
// # Atomicity
//
// Every write marshals the full collection to a temp file and renames
// it over the old one, so a concurrent reader of the file never sees a
// half-written collection. ReplaceAll, the primitive used after any
// merge, rolls the in-memory state back if the write fails.
//
// # Failure Semantics
//
//   - ErrStorageUnavailable: the medium cannot be read or written.
//     Nothing changed; retry is safe.
//   - ErrCorruptCollection: on-disk data fails to parse or validate.
//     The store keeps its last good in-memory state and never
//     overwrites good data with garbage.
//
// # Concurrency
//
// Single-process, single-writer-at-a-time. The internal mutex keeps
// individual operations consistent, but overlapping read-then-write
// sequences from different triggers must be sequenced by the caller.
// A lost update is not destructive: merges are monotonic on
// lastModified, so a superseded write is reconciled on the next merge.
package store
