// Package merge combines two record collections into one using
// last-write-wins timestamp precedence.
//
// Merge is a union: records are inserted or replaced, never deleted. A
// record absent from the incoming side is kept as-is, so deletions do
// not propagate through merge — there are no tombstones. Deletions
// reach other replicas only through the remote channel's explicit
// orphan prune. This is a documented limitation, not an oversight.
//
// Ties (equal lastModified) keep the local record, which makes
// merge(X, X) == X hold exactly and keeps the result deterministic.
package merge

import (
	"github.com/snipvault/snipvault/internal/record"
)

// Folders merges two folder collections. Local records win ties; an
// incoming record replaces a local one only when its lastModified is
// strictly greater. Output order is deterministic: locals stay in
// place, unseen incomings append in input order.
func Folders(local, incoming []record.Folder) []record.Folder {
	index := make(map[string]int, len(local))
	out := make([]record.Folder, len(local))
	copy(out, local)
	for i, f := range out {
		index[f.ID] = i
	}

	for _, in := range incoming {
		i, ok := index[in.ID]
		if !ok {
			index[in.ID] = len(out)
			out = append(out, in)
			continue
		}
		if in.LastModified > out[i].LastModified {
			out[i] = in
		}
	}
	return out
}

// Snippets merges two snippet collections with the same precedence
// rules as Folders.
func Snippets(local, incoming []record.Snippet) []record.Snippet {
	index := make(map[string]int, len(local))
	out := make([]record.Snippet, len(local))
	copy(out, local)
	for i, s := range out {
		index[s.ID] = i
	}

	for _, in := range incoming {
		i, ok := index[in.ID]
		if !ok {
			index[in.ID] = len(out)
			out = append(out, in)
			continue
		}
		if in.LastModified > out[i].LastModified {
			out[i] = in
		}
	}
	return out
}

// Collections merges folders and snippets independently. The two merges
// do not interact, so their relative order is irrelevant.
func Collections(local, incoming record.Collection) record.Collection {
	return record.Collection{
		Folders:  Folders(local.Folders, incoming.Folders),
		Snippets: Snippets(local.Snippets, incoming.Snippets),
	}
}
