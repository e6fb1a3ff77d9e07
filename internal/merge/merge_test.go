package merge

import (
	"reflect"
	"testing"

	"github.com/snipvault/snipvault/internal/record"
)

func snip(id string, modified int64, name string) record.Snippet {
	return record.Snippet{
		ID:           id,
		Name:         name,
		FolderID:     "f1",
		LastModified: modified,
	}
}

func TestSnippets_LocalWinsOlderIncoming(t *testing.T) {
	local := []record.Snippet{snip("s1", 100, "local")}
	incoming := []record.Snippet{snip("s1", 50, "stale")}

	got := Snippets(local, incoming)

	if len(got) != 1 {
		t.Fatalf("Snippets() returned %d records, want 1", len(got))
	}
	if got[0].Name != "local" || got[0].LastModified != 100 {
		t.Errorf("Snippets() kept %q@%d, want local@100", got[0].Name, got[0].LastModified)
	}
}

func TestSnippets_NewerIncomingWins(t *testing.T) {
	local := []record.Snippet{snip("s1", 100, "local")}
	incoming := []record.Snippet{snip("s1", 150, "fresh")}

	got := Snippets(local, incoming)

	if got[0].Name != "fresh" || got[0].LastModified != 150 {
		t.Errorf("Snippets() kept %q@%d, want fresh@150", got[0].Name, got[0].LastModified)
	}
}

func TestSnippets_TieKeepsLocal(t *testing.T) {
	local := []record.Snippet{snip("s1", 100, "local")}
	incoming := []record.Snippet{snip("s1", 100, "contender")}

	got := Snippets(local, incoming)

	if got[0].Name != "local" {
		t.Errorf("Snippets() tie kept %q, want local", got[0].Name)
	}
}

func TestSnippets_UnknownIncomingInserted(t *testing.T) {
	local := []record.Snippet{snip("s1", 100, "a")}
	incoming := []record.Snippet{snip("s2", 10, "b"), snip("s3", 20, "c")}

	got := Snippets(local, incoming)

	if len(got) != 3 {
		t.Fatalf("Snippets() returned %d records, want 3", len(got))
	}
	// Locals stay in place, new incomings append in input order.
	if got[0].ID != "s1" || got[1].ID != "s2" || got[2].ID != "s3" {
		t.Errorf("Snippets() order = [%s %s %s], want [s1 s2 s3]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestSnippets_NeverDeletes(t *testing.T) {
	local := []record.Snippet{snip("s1", 100, "a"), snip("s2", 100, "b")}

	got := Snippets(local, nil)

	if len(got) != 2 {
		t.Errorf("Snippets() dropped records on empty incoming: got %d, want 2", len(got))
	}
}

func TestCollections_Idempotent(t *testing.T) {
	x := record.Collection{
		Folders: []record.Folder{
			{ID: "f1", Name: "go", LastModified: 5},
			{ID: "f2", Name: "py", LastModified: 9},
		},
		Snippets: []record.Snippet{snip("s1", 100, "a"), snip("s2", 7, "b")},
	}

	got := Collections(x, x)

	if !reflect.DeepEqual(got, x) {
		t.Errorf("Collections(X, X) != X:\n got %+v\nwant %+v", got, x)
	}
}

func TestCollections_Monotonic(t *testing.T) {
	local := record.Collection{
		Snippets: []record.Snippet{snip("s1", 100, "a"), snip("s2", 40, "b")},
	}
	incoming := record.Collection{
		Snippets: []record.Snippet{snip("s1", 90, "a'"), snip("s2", 60, "b'"), snip("s3", 5, "c")},
	}

	got := Collections(local, incoming)

	want := map[string]int64{"s1": 100, "s2": 60, "s3": 5}
	for _, s := range got.Snippets {
		if s.LastModified < want[s.ID] {
			t.Errorf("merged %s lastModified = %d, want >= %d", s.ID, s.LastModified, want[s.ID])
		}
	}
}

func TestFolders_IndependentOfSnippets(t *testing.T) {
	local := record.Collection{
		Folders:  []record.Folder{{ID: "f1", Name: "old", LastModified: 10}},
		Snippets: []record.Snippet{snip("s1", 100, "a")},
	}
	incoming := record.Collection{
		Folders: []record.Folder{{ID: "f1", Name: "new", LastModified: 20}},
	}

	got := Collections(local, incoming)

	if got.Folders[0].Name != "new" {
		t.Errorf("folder merge did not adopt newer incoming: got %q", got.Folders[0].Name)
	}
	if len(got.Snippets) != 1 {
		t.Errorf("snippet merge affected by folder merge: got %d snippets", len(got.Snippets))
	}
}
