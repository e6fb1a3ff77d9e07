package record

import (
	"testing"
)

func TestNewSnippet_Defaults(t *testing.T) {
	s := NewSnippet("fetch with retry", "f1")

	if s.ID == "" {
		t.Errorf("NewSnippet() did not assign an id")
	}
	if s.Language != DefaultLanguage {
		t.Errorf("NewSnippet() language = %q, want %q", s.Language, DefaultLanguage)
	}
	if s.Tags == nil {
		t.Errorf("NewSnippet() tags is nil, want empty slice")
	}
	if s.FolderID != "f1" {
		t.Errorf("NewSnippet() folderId = %q, want %q", s.FolderID, "f1")
	}
	if s.LastModified == 0 {
		t.Errorf("NewSnippet() lastModified is zero")
	}
}

func TestNewFolder_Root(t *testing.T) {
	f := NewFolder("inbox", nil)

	if f.ID == "" {
		t.Errorf("NewFolder() did not assign an id")
	}
	if f.ParentID != nil {
		t.Errorf("NewFolder() parentId = %v, want nil", *f.ParentID)
	}
	if f.LastModified == 0 {
		t.Errorf("NewFolder() lastModified is zero")
	}
}

func TestSnippet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		snippet Snippet
		wantErr bool
	}{
		{
			name:    "valid",
			snippet: Snippet{ID: "s1", Name: "hello", FolderID: "f1"},
			wantErr: false,
		},
		{
			name:    "missing id",
			snippet: Snippet{Name: "hello", FolderID: "f1"},
			wantErr: true,
		},
		{
			name:    "missing name",
			snippet: Snippet{ID: "s1", FolderID: "f1"},
			wantErr: true,
		},
		{
			name:    "missing folderId",
			snippet: Snippet{ID: "s1", Name: "hello"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snippet.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSnippet_Sanitize_Idempotent(t *testing.T) {
	s := Snippet{ID: "s1", Name: "bare", FolderID: "f1"}

	s.Sanitize()

	if s.Language != DefaultLanguage {
		t.Errorf("Sanitize() language = %q, want %q", s.Language, DefaultLanguage)
	}
	if s.Tags == nil {
		t.Errorf("Sanitize() tags is nil, want empty slice")
	}
	if s.LastModified == 0 {
		t.Errorf("Sanitize() lastModified is zero")
	}

	// Re-sanitizing must not change anything.
	before := s
	s.Sanitize()
	if s.Language != before.Language || s.LastModified != before.LastModified {
		t.Errorf("Sanitize() is not idempotent: before=%+v after=%+v", before, s)
	}
}

func TestSnippet_Sanitize_PreservesTimestamp(t *testing.T) {
	s := Snippet{ID: "s1", Name: "stamped", FolderID: "f1", LastModified: 12345}
	s.Sanitize()
	if s.LastModified != 12345 {
		t.Errorf("Sanitize() changed lastModified: got %d, want 12345", s.LastModified)
	}
}

func TestTouch_Monotonic(t *testing.T) {
	// A stamp from the future must still advance, never regress.
	future := NowMillis() + int64(1000*60*60)
	s := Snippet{ID: "s1", Name: "x", FolderID: "f1", LastModified: future}

	s.Touch()

	if s.LastModified <= future-1 {
		t.Errorf("Touch() regressed lastModified: got %d, had %d", s.LastModified, future)
	}
	if s.LastModified < future {
		t.Errorf("Touch() did not advance: got %d, had %d", s.LastModified, future)
	}
}

func TestSnippet_HasTag(t *testing.T) {
	s := Snippet{Tags: []string{"http", "retry"}}
	if !s.HasTag("retry") {
		t.Errorf("HasTag(retry) = false, want true")
	}
	if s.HasTag("grpc") {
		t.Errorf("HasTag(grpc) = true, want false")
	}
}

func TestCollection_Lookups(t *testing.T) {
	col := Collection{
		Folders:  []Folder{{ID: "f1", Name: "go"}},
		Snippets: []Snippet{{ID: "s1", Name: "x", FolderID: "f1"}},
	}

	if _, ok := col.FolderByID("f1"); !ok {
		t.Errorf("FolderByID(f1) not found")
	}
	if _, ok := col.FolderByID("nope"); ok {
		t.Errorf("FolderByID(nope) unexpectedly found")
	}
	if _, ok := col.SnippetByID("s1"); !ok {
		t.Errorf("SnippetByID(s1) not found")
	}
}
