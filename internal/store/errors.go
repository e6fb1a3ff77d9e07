package store

import "errors"

var (
	// ErrStorageUnavailable indicates the underlying medium could not be
	// read or written. Nothing was changed; the operation is safe to
	// retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptCollection indicates the on-disk collection failed to
	// parse or validate. The store keeps its last good in-memory state
	// and refuses to overwrite good data with garbage.
	ErrCorruptCollection = errors.New("corrupt collection")

	// ErrNotFound indicates no record with the requested id exists.
	ErrNotFound = errors.New("record not found")

	// ErrCycle indicates a folder move that would make a folder its own
	// ancestor.
	ErrCycle = errors.New("move would create a folder cycle")
)
