// Package tree builds a navigable hierarchy from the flat folder and
// snippet collections and answers search queries over it.
package tree

import (
	"sort"

	"github.com/snipvault/snipvault/internal/record"
)

// Tree is a read-only projection of one collection snapshot. It is
// rebuilt on demand and never written back.
type Tree struct {
	folders  map[string]record.Folder
	children map[string][]record.Folder  // parent id ("" for root) -> folders
	snippets map[string][]record.Snippet // folder id -> snippets
}

// Build projects the flat collection into a tree.
//
// Pathological data can contain a parent cycle; Build breaks cycles by
// promoting one folder of each cycle to root rather than recursing
// forever. Folders pointing at a missing parent are promoted to root as
// well.
func Build(col record.Collection) *Tree {
	t := &Tree{
		folders:  make(map[string]record.Folder, len(col.Folders)),
		children: make(map[string][]record.Folder),
		snippets: make(map[string][]record.Snippet),
	}
	for _, f := range col.Folders {
		t.folders[f.ID] = f
	}

	for _, f := range col.Folders {
		parent := ""
		if f.ParentID != nil {
			if _, ok := t.folders[*f.ParentID]; ok {
				parent = *f.ParentID
			}
		}
		// A parent chain that leads back to f is a cycle; break it by
		// promoting f to root instead of recursing forever.
		if parent != "" && t.reachesFrom(parent, f.ID) {
			parent = ""
		}
		t.children[parent] = append(t.children[parent], f)
	}

	for _, s := range col.Snippets {
		t.snippets[s.FolderID] = append(t.snippets[s.FolderID], s)
	}

	for parent := range t.children {
		sortFolders(t.children[parent])
	}
	for folder := range t.snippets {
		sortSnippets(t.snippets[folder])
	}
	return t
}

// reachesFrom reports whether walking the parent chain upward from
// start arrives at target. Bounded by a visited set so foreign cycles
// terminate too.
func (t *Tree) reachesFrom(start, target string) bool {
	visited := make(map[string]bool)
	cur := start
	for {
		if cur == target {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true

		f, ok := t.folders[cur]
		if !ok || f.ParentID == nil {
			return false
		}
		cur = *f.ParentID
	}
}

// Roots returns the root-level folders, ordered.
func (t *Tree) Roots() []record.Folder {
	return t.children[""]
}

// ChildFolders returns the ordered subfolders of a folder.
func (t *Tree) ChildFolders(folderID string) []record.Folder {
	return t.children[folderID]
}

// ChildSnippets returns the ordered snippets directly owned by a
// folder. Browsing UIs list these after the folder's subfolders.
func (t *Tree) ChildSnippets(folderID string) []record.Snippet {
	return t.snippets[folderID]
}

// Folder returns the folder with the given id, if present.
func (t *Tree) Folder(id string) (record.Folder, bool) {
	f, ok := t.folders[id]
	return f, ok
}

// Descendants returns every folder below folderID, deepest first, so a
// caller deleting the slice in order never orphans a child. The walk is
// cycle-safe.
func (t *Tree) Descendants(folderID string) []record.Folder {
	var out []record.Folder
	visited := map[string]bool{folderID: true}

	var walk func(id string)
	walk = func(id string) {
		for _, child := range t.children[id] {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			walk(child.ID)
			out = append(out, child)
		}
	}
	walk(folderID)
	return out
}

// sortFolders orders siblings by their explicit Order key when present,
// then by name. Unordered siblings sort after ordered ones.
func sortFolders(folders []record.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		a, b := folders[i], folders[j]
		switch {
		case a.Order != nil && b.Order != nil:
			if *a.Order != *b.Order {
				return *a.Order < *b.Order
			}
		case a.Order != nil:
			return true
		case b.Order != nil:
			return false
		}
		return a.Name < b.Name
	})
}

func sortSnippets(snippets []record.Snippet) {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Name < snippets[j].Name
	})
}
