package ui

import (
	"strings"
	"testing"

	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/tree"
)

func ptr(s string) *string { return &s }

func TestRenderTree_NestingAndSnippets(t *testing.T) {
	col := record.Collection{
		Folders: []record.Folder{
			{ID: "f1", Name: "go", LastModified: 1},
			{ID: "f2", Name: "http", ParentID: ptr("f1"), LastModified: 1},
		},
		Snippets: []record.Snippet{
			{ID: "s1", Name: "retry", FolderID: "f2", Language: "go", LastModified: 1},
		},
	}

	out := RenderTree(tree.Build(col))

	goIdx := strings.Index(out, "go/")
	httpIdx := strings.Index(out, "http/")
	snipIdx := strings.Index(out, "retry")
	if goIdx < 0 || httpIdx < 0 || snipIdx < 0 {
		t.Fatalf("RenderTree() missing entries:\n%s", out)
	}
	if !(goIdx < httpIdx && httpIdx < snipIdx) {
		t.Errorf("RenderTree() order wrong:\n%s", out)
	}

	// Child folder is indented under its parent.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "http/") && !strings.HasPrefix(line, "  ") {
			t.Errorf("child folder not indented: %q", line)
		}
	}
}

func TestRenderTree_Empty(t *testing.T) {
	out := RenderTree(tree.Build(record.Collection{}))
	if !strings.Contains(out, "no folders") {
		t.Errorf("RenderTree() on empty collection = %q", out)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("ShortID() = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID() short input = %q", got)
	}
}
