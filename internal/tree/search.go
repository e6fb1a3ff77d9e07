package tree

import (
	"strings"

	"github.com/snipvault/snipvault/internal/record"
)

// Hit is a search result: a matching snippet surfaced flat at root
// level, annotated with its owning folder's name so results stay
// scannable outside the normal nesting.
type Hit struct {
	Snippet    record.Snippet
	FolderName string
}

// Result holds everything a search query surfaced.
type Result struct {
	Folders []record.Folder
	Hits    []Hit
}

// Search filters the collection by a multi-term query.
//
// The query is lower-cased and split on whitespace. A snippet matches
// when every term is found as a substring in at least one of name,
// tags, notes, or code — AND across terms, OR across fields. Folders
// match on name only. An empty query matches nothing.
func Search(col record.Collection, query string) Result {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return Result{}
	}

	var res Result
	for _, f := range col.Folders {
		if folderMatches(f, terms) {
			res.Folders = append(res.Folders, f)
		}
	}

	names := make(map[string]string, len(col.Folders))
	for _, f := range col.Folders {
		names[f.ID] = f.Name
	}

	for _, s := range col.Snippets {
		if snippetMatches(s, terms) {
			res.Hits = append(res.Hits, Hit{Snippet: s, FolderName: names[s.FolderID]})
		}
	}
	return res
}

func folderMatches(f record.Folder, terms []string) bool {
	name := strings.ToLower(f.Name)
	for _, term := range terms {
		if !strings.Contains(name, term) {
			return false
		}
	}
	return true
}

func snippetMatches(s record.Snippet, terms []string) bool {
	name := strings.ToLower(s.Name)
	notes := strings.ToLower(s.Notes)
	code := strings.ToLower(s.Code)

	for _, term := range terms {
		if strings.Contains(name, term) || strings.Contains(notes, term) || strings.Contains(code, term) {
			continue
		}
		if tagMatches(s.Tags, term) {
			continue
		}
		return false
	}
	return true
}

func tagMatches(tags []string, term string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
