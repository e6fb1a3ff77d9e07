// Package record defines the Folder and Snippet data model shared by
// every replica of the snippet store.
//
// # Overview
//
// Records are deliberately flat: every field can be replaced wholesale,
// and a single lastModified stamp (milliseconds since epoch) resolves
// conflicts between replicas with last-write-wins semantics. There is
// no per-field merging and no tombstone state.
//
// # Record Kinds
//
// Folder — a node in the browsing hierarchy. ParentID links it to its
// container; nil means root level. The parent graph must stay acyclic.
//
// Snippet — a named text blob with language, notes, and tag metadata,
// owned by exactly one folder through FolderID.
//
// # Boundary Decoding
//
// External inputs (backup files, remote documents) arrive as untyped
// JSON. DecodeRecord performs a closed tagged-union decode once at the
// boundary — an explicit "type":"folder" discriminator, else structural
// shape — so everything downstream works with strict types.
//
// # Sanitization
//
// Older replicas omit fields that newer code expects. Sanitize fills
// defaults (empty code/notes, "plaintext" language, empty tag set,
// current time for a missing stamp) idempotently at read time. It is a
// normalization, not a mutation: it never advances an existing
// lastModified.
package record
