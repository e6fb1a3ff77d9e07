package gist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/snipvault/snipvault/internal/record"
)

// Document is the decoded form of one remote replica: a snippet's
// metadata block plus its code body.
type Document struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Folder       string `json:"folder"`
	FolderID     string `json:"folderId"`
	Language     string `json:"language"`
	Notes        string `json:"notes"`
	LastModified int64  `json:"lastModified,omitempty"`
	Code         string `json:"code"`
}

// legacy header-comment markers. Old clients wrote metadata as leading
// comment lines before the code body instead of a structured payload.
const (
	legacyMarker = "// snipvault:meta"
	legacyPrefix = "// "
)

// EncodeDocument renders a snippet as the structured remote payload.
// The returned filename carries a language-appropriate extension so the
// gist stays readable in a browser.
func EncodeDocument(s record.Snippet, folderName string) (filename, content string, err error) {
	doc := Document{
		ID:           s.ID,
		Name:         s.Name,
		Folder:       folderName,
		FolderID:     s.FolderID,
		Language:     s.Language,
		Notes:        s.Notes,
		LastModified: s.LastModified,
		Code:         s.Code,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal document for %s: %w", s.ID, err)
	}
	return DocumentFilename(s), string(data), nil
}

// DecodeDocument parses remote content, attempting the structured
// encoding first and falling back to the legacy comment-header form.
func DecodeDocument(content string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(content), &doc); err == nil && doc.ID != "" {
		return doc, nil
	}
	return decodeLegacy(content)
}

// decodeLegacy parses the old format: a marker line, "// key: value"
// metadata lines, then the raw code body.
func decodeLegacy(content string) (Document, error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != legacyMarker {
		return Document{}, fmt.Errorf("content is neither structured nor legacy encoded")
	}

	var doc Document
	i := 1
	for ; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, legacyPrefix) {
			break
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, legacyPrefix), ": ")
		if !ok {
			break
		}
		switch key {
		case "id":
			doc.ID = value
		case "name":
			doc.Name = value
		case "folder":
			doc.Folder = value
		case "folderId":
			doc.FolderID = value
		case "language":
			doc.Language = value
		case "notes":
			doc.Notes = value
		}
	}

	if doc.ID == "" {
		return Document{}, fmt.Errorf("legacy header is missing an id")
	}
	doc.Code = strings.Join(lines[i:], "\n")
	return doc, nil
}

// Snippet converts a decoded document back into a snippet record. A
// document without a timestamp sanitizes to time-of-merge downstream.
func (d Document) Snippet() record.Snippet {
	s := record.Snippet{
		ID:           d.ID,
		Name:         d.Name,
		Code:         d.Code,
		Notes:        d.Notes,
		Language:     d.Language,
		FolderID:     d.FolderID,
		LastModified: d.LastModified,
	}
	s.Sanitize()
	return s
}

// DocumentFilename derives a stable, browser-friendly filename for the
// snippet's gist file.
func DocumentFilename(s record.Snippet) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, s.Name)
	if name == "" {
		name = "snippet"
	}
	return name + extensionFor(s.Language)
}

func extensionFor(language string) string {
	switch strings.ToLower(language) {
	case "go":
		return ".go"
	case "python":
		return ".py"
	case "javascript":
		return ".js"
	case "typescript":
		return ".ts"
	case "ruby":
		return ".rb"
	case "rust":
		return ".rs"
	case "shell", "bash":
		return ".sh"
	case "sql":
		return ".sql"
	default:
		return ".txt"
	}
}
