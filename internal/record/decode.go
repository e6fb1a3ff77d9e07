package record

import (
	"encoding/json"
	"fmt"
)

// TypeFolder is the explicit discriminator written by the backup
// mirror's flat-array envelope.
const TypeFolder = "folder"

// probe is the minimal structural view used to discriminate untyped
// records at the system boundary.
type probe struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	FolderID json.RawMessage `json:"folderId"`
	Code     json.RawMessage `json:"code"`
}

// DecodeRecord performs the closed tagged-union decode of one untyped
// JSON record. Discrimination rules, in order:
//
//  1. An explicit "type":"folder" field marks a folder.
//  2. Presence of a folderId or code field marks a snippet.
//  3. Anything else is a folder.
//
// The returned value is either a Folder or a Snippet. Records without an
// id are rejected; downstream code never sees a partially-typed record.
func DecodeRecord(raw json.RawMessage) (any, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("undecodable record: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("record is missing an id")
	}

	if p.Type != TypeFolder && (p.FolderID != nil || p.Code != nil) {
		var s Snippet
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("record %s: not a valid snippet: %w", p.ID, err)
		}
		return s, nil
	}

	var f Folder
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("record %s: not a valid folder: %w", p.ID, err)
	}
	return f, nil
}

// DecodeRecords splits a flat array of untyped records into a typed
// Collection. Any undecodable or id-less record fails the whole decode;
// a partially-valid input must never partially land.
func DecodeRecords(raws []json.RawMessage) (Collection, error) {
	var col Collection
	for i, raw := range raws {
		rec, err := DecodeRecord(raw)
		if err != nil {
			return Collection{}, fmt.Errorf("record %d: %w", i, err)
		}
		switch r := rec.(type) {
		case Folder:
			col.Folders = append(col.Folders, r)
		case Snippet:
			col.Snippets = append(col.Snippets, r)
		}
	}
	return col, nil
}
