package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/snipvault/snipvault/internal/record"
)

// EnvelopeVersion is the version written by every export.
const EnvelopeVersion = "1.0"

// ErrInvalidFormat indicates a backup file that cannot be decoded into
// a valid collection. The whole import is rejected before any merge;
// partial or garbage imports never land.
var ErrInvalidFormat = errors.New("invalid backup format")

// envelope is the versioned on-disk shape written by Encode. Older
// writers produced a split {folders, snippets} object or a bare mixed
// array; Decode accepts all three.
type envelope struct {
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Data      []json.RawMessage `json:"data"`
}

// taggedFolder is a folder carrying the explicit discriminator used in
// the flat data array.
type taggedFolder struct {
	record.Folder
	Type string `json:"type"`
}

// Encode serializes the collection into the versioned envelope: folder
// records tagged with "type":"folder" first, snippets after.
func Encode(col record.Collection) ([]byte, error) {
	data := make([]json.RawMessage, 0, len(col.Folders)+len(col.Snippets))

	for _, f := range col.Folders {
		raw, err := json.Marshal(taggedFolder{Folder: f, Type: record.TypeFolder})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal folder %s: %w", f.ID, err)
		}
		data = append(data, raw)
	}
	for _, s := range col.Snippets {
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snippet %s: %w", s.ID, err)
		}
		data = append(data, raw)
	}

	env := envelope{
		Version:   EnvelopeVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return out, nil
}

// Decode parses a backup file in any of the three accepted shapes:
//
//   - the versioned envelope {version, timestamp, data: [...]}
//   - a split object {folders: [...], snippets: [...]}
//   - a bare mixed array discriminated by folderId presence
//
// The decode is all-or-nothing: any record that fails the tagged-union
// decode or validation rejects the entire input with ErrInvalidFormat.
func Decode(data []byte) (record.Collection, error) {
	col, err := decodeShapes(data)
	if err != nil {
		return record.Collection{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	col.Sanitize()
	if err := col.Validate(); err != nil {
		return record.Collection{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return col, nil
}

func decodeShapes(data []byte) (record.Collection, error) {
	// Bare array shape. JSON null also unmarshals into a nil slice
	// without error; only an actual array counts.
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err == nil {
		if raws == nil {
			return record.Collection{}, fmt.Errorf("input is null, not a backup")
		}
		return record.DecodeRecords(raws)
	}

	var shape struct {
		Data     []json.RawMessage `json:"data"`
		Folders  []json.RawMessage `json:"folders"`
		Snippets []json.RawMessage `json:"snippets"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return record.Collection{}, fmt.Errorf("not a recognized backup shape: %w", err)
	}

	switch {
	case shape.Data != nil:
		return record.DecodeRecords(shape.Data)
	case shape.Folders != nil || shape.Snippets != nil:
		col, err := record.DecodeRecords(shape.Folders)
		if err != nil {
			return record.Collection{}, err
		}
		for i, raw := range shape.Snippets {
			rec, err := record.DecodeRecord(raw)
			if err != nil {
				return record.Collection{}, fmt.Errorf("snippet %d: %w", i, err)
			}
			switch r := rec.(type) {
			case record.Snippet:
				col.Snippets = append(col.Snippets, r)
			case record.Folder:
				// A folder-shaped record in the snippets array means
				// the writer disagreed about the shape; reject rather
				// than guess.
				return record.Collection{}, fmt.Errorf("snippet %d (%s): decoded as a folder", i, r.ID)
			}
		}
		return col, nil
	default:
		return record.Collection{}, fmt.Errorf("no data, folders, or snippets field present")
	}
}
