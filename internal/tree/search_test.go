package tree

import (
	"testing"

	"github.com/snipvault/snipvault/internal/record"
)

func searchCollection() record.Collection {
	return record.Collection{
		Folders: []record.Folder{
			{ID: "f1", Name: "HTTP clients"},
			{ID: "f2", Name: "databases"},
		},
		Snippets: []record.Snippet{
			{
				ID: "s1", Name: "fetch", FolderID: "f1",
				Code:  "resp, err := http.Get(url)",
				Notes: "simple retry on 503",
			},
			{
				ID: "s2", Name: "plain get", FolderID: "f1",
				Code: "http.Get without any backoff",
			},
			{
				ID: "s3", Name: "connect", FolderID: "f2",
				Tags: []string{"postgres", "pool"},
			},
		},
	}
}

func TestSearch_ANDAcrossTerms(t *testing.T) {
	col := searchCollection()

	// "http retry": s1 has http in code and retry in notes; s2 has only
	// http and must not match.
	res := Search(col, "http retry")

	if len(res.Hits) != 1 {
		t.Fatalf("Search(http retry) = %d hits, want 1", len(res.Hits))
	}
	if res.Hits[0].Snippet.ID != "s1" {
		t.Errorf("Search(http retry) matched %s, want s1", res.Hits[0].Snippet.ID)
	}
}

func TestSearch_ORAcrossFields(t *testing.T) {
	res := Search(searchCollection(), "postgres")
	if len(res.Hits) != 1 || res.Hits[0].Snippet.ID != "s3" {
		t.Errorf("Search(postgres) did not match on tags: %+v", res.Hits)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	res := Search(searchCollection(), "FETCH")
	if len(res.Hits) != 1 || res.Hits[0].Snippet.ID != "s1" {
		t.Errorf("Search(FETCH) = %+v, want s1", res.Hits)
	}
}

func TestSearch_FoldersMatchOnNameOnly(t *testing.T) {
	res := Search(searchCollection(), "http")

	if len(res.Folders) != 1 || res.Folders[0].ID != "f1" {
		t.Errorf("Search(http) folders = %+v, want f1", res.Folders)
	}

	// "retry" appears only in snippet notes; no folder may match it.
	res = Search(searchCollection(), "retry")
	if len(res.Folders) != 0 {
		t.Errorf("Search(retry) folders = %+v, want none", res.Folders)
	}
}

func TestSearch_HitsCarryFolderName(t *testing.T) {
	res := Search(searchCollection(), "fetch")
	if res.Hits[0].FolderName != "HTTP clients" {
		t.Errorf("Hit folder name = %q, want %q", res.Hits[0].FolderName, "HTTP clients")
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	res := Search(searchCollection(), "   ")
	if len(res.Hits) != 0 || len(res.Folders) != 0 {
		t.Errorf("Search(blank) = %+v, want empty result", res)
	}
}
