// Package gist maintains the per-snippet remote replicas on GitHub
// Gists. Each snippet maps to exactly one private gist holding a single
// structured document; the snippet-to-gist id mapping lives in the
// sqlite state database.
//
// Push and pull report per-item outcomes so a partially failed batch is
// visible as such. Authentication failures are fatal to the whole
// attempt; a single missing remote document is recoverable (push
// recreates it, pull prunes its mapping).
package gist
