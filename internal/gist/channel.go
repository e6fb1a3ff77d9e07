package gist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/snipvault/snipvault/internal/record"
)

// MappingStore persists the 1:1 snippet-to-gist id mapping. The sqlite
// state database implements it.
type MappingStore interface {
	SetMapping(ctx context.Context, snippetID, gistID string) error
	Mapping(ctx context.Context, snippetID string) (string, error)
	Mappings(ctx context.Context) (map[string]string, error)
	DeleteMapping(ctx context.Context, snippetID string) error
}

// Action describes what happened to one item during a push or pull.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionRecreated Action = "recreated"
	ActionPruned    Action = "pruned"
	ActionPulled    Action = "pulled"
	ActionFailed    Action = "failed"
)

// ItemResult reports the outcome for one snippet or orphan. A batch
// never collapses into a single boolean: callers can tell "nothing
// changed" from "some items changed, some failed".
type ItemResult struct {
	SnippetID string
	GistID    string
	Action    Action
	Err       error
}

// Channel maintains the per-snippet remote replicas.
type Channel struct {
	client  *Client
	mapping MappingStore
	logger  *log.Logger
}

// NewChannel wires a channel over a client and a mapping store.
func NewChannel(client *Client, mapping MappingStore, logger *log.Logger) *Channel {
	if logger == nil {
		logger = log.New(os.Stderr, "[gist] ", log.LstdFlags)
	}
	return &Channel{client: client, mapping: mapping, logger: logger}
}

// Push replicates every local snippet to its remote document and prunes
// orphaned documents whose snippet no longer exists locally. Pruning is
// the one place deletions propagate between replicas.
//
// An authentication failure aborts the whole attempt; the results
// gathered so far are returned alongside ErrAuthInvalid. Any other
// per-item failure is recorded and the push continues.
func (c *Channel) Push(ctx context.Context, col record.Collection) ([]ItemResult, error) {
	folderNames := make(map[string]string, len(col.Folders))
	for _, f := range col.Folders {
		folderNames[f.ID] = f.Name
	}

	var results []ItemResult
	for _, s := range col.Snippets {
		res := c.pushOne(ctx, s, folderNames[s.FolderID])
		results = append(results, res)
		if errors.Is(res.Err, ErrAuthInvalid) {
			return results, res.Err
		}
	}

	pruned, err := c.pruneOrphans(ctx, col)
	results = append(results, pruned...)
	return results, err
}

func (c *Channel) pushOne(ctx context.Context, s record.Snippet, folderName string) ItemResult {
	filename, content, err := EncodeDocument(s, folderName)
	if err != nil {
		return ItemResult{SnippetID: s.ID, Action: ActionFailed, Err: err}
	}
	description := "snipvault: " + s.Name

	gistID, err := c.mapping.Mapping(ctx, s.ID)
	if err != nil {
		return ItemResult{SnippetID: s.ID, Action: ActionFailed, Err: err}
	}

	if gistID == "" {
		return c.createRemote(ctx, s.ID, description, filename, content, ActionCreated)
	}

	// Fetch first so a rename can drop the old file, and so a document
	// deleted out-of-band is detected and recreated.
	existing, err := c.client.Fetch(ctx, gistID)
	if errors.Is(err, ErrDocumentMissing) {
		c.logger.Printf("Remote document %s for %s is gone; recreating", gistID, s.ID)
		return c.createRemote(ctx, s.ID, description, filename, content, ActionRecreated)
	}
	if err != nil {
		return ItemResult{SnippetID: s.ID, GistID: gistID, Action: ActionFailed, Err: err}
	}

	drop := make([]string, 0, len(existing.Files))
	for name := range existing.Files {
		drop = append(drop, name)
	}
	sort.Strings(drop)

	if err := c.client.Update(ctx, gistID, description, filename, content, drop); err != nil {
		if errors.Is(err, ErrDocumentMissing) {
			return c.createRemote(ctx, s.ID, description, filename, content, ActionRecreated)
		}
		return ItemResult{SnippetID: s.ID, GistID: gistID, Action: ActionFailed, Err: err}
	}
	return ItemResult{SnippetID: s.ID, GistID: gistID, Action: ActionUpdated}
}

func (c *Channel) createRemote(ctx context.Context, snippetID, description, filename, content string, action Action) ItemResult {
	gistID, err := c.client.Create(ctx, description, filename, content)
	if err != nil {
		return ItemResult{SnippetID: snippetID, Action: ActionFailed, Err: err}
	}
	if err := c.mapping.SetMapping(ctx, snippetID, gistID); err != nil {
		return ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed,
			Err: fmt.Errorf("document created but mapping not recorded: %w", err)}
	}
	return ItemResult{SnippetID: snippetID, GistID: gistID, Action: action}
}

// Prune deletes remote documents whose snippet no longer exists locally
// and removes their mappings, without uploading anything.
func (c *Channel) Prune(ctx context.Context, col record.Collection) ([]ItemResult, error) {
	return c.pruneOrphans(ctx, col)
}

// pruneOrphans deletes remote documents whose snippet no longer exists
// locally and removes their mappings.
func (c *Channel) pruneOrphans(ctx context.Context, col record.Collection) ([]ItemResult, error) {
	mappings, err := c.mapping.Mappings(ctx)
	if err != nil {
		return nil, err
	}

	local := make(map[string]bool, len(col.Snippets))
	for _, s := range col.Snippets {
		local[s.ID] = true
	}

	// Deterministic order keeps logs and tests stable.
	ids := make([]string, 0, len(mappings))
	for snippetID := range mappings {
		if !local[snippetID] {
			ids = append(ids, snippetID)
		}
	}
	sort.Strings(ids)

	var results []ItemResult
	for _, snippetID := range ids {
		gistID := mappings[snippetID]
		err := c.client.Delete(ctx, gistID)
		if err != nil && !errors.Is(err, ErrDocumentMissing) {
			if errors.Is(err, ErrAuthInvalid) {
				results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed, Err: err})
				return results, err
			}
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed, Err: err})
			continue
		}
		if err := c.mapping.DeleteMapping(ctx, snippetID); err != nil {
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed, Err: err})
			continue
		}
		results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionPruned})
	}
	return results, nil
}

// Pull fetches every mapped remote document and reconstructs a
// collection for the caller to merge against the canonical store.
// Folders referenced by a document but unknown locally are
// reconstructed from the metadata block.
//
// A missing document prunes its mapping and is reported per-item; an
// authentication failure aborts the whole attempt.
func (c *Channel) Pull(ctx context.Context, local record.Collection) (record.Collection, []ItemResult, error) {
	mappings, err := c.mapping.Mappings(ctx)
	if err != nil {
		return record.Collection{}, nil, err
	}

	known := make(map[string]bool, len(local.Folders))
	for _, f := range local.Folders {
		known[f.ID] = true
	}

	snippetIDs := make([]string, 0, len(mappings))
	for id := range mappings {
		snippetIDs = append(snippetIDs, id)
	}
	sort.Strings(snippetIDs)

	var (
		col     record.Collection
		results []ItemResult
		rebuilt = make(map[string]bool)
	)
	for _, snippetID := range snippetIDs {
		gistID := mappings[snippetID]

		g, err := c.client.Fetch(ctx, gistID)
		if errors.Is(err, ErrAuthInvalid) {
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed, Err: err})
			return record.Collection{}, results, err
		}
		if errors.Is(err, ErrDocumentMissing) {
			// Confirmed gone remotely; drop the stale mapping.
			if derr := c.mapping.DeleteMapping(ctx, snippetID); derr != nil {
				c.logger.Printf("Warning: failed to prune stale mapping %s: %v", snippetID, derr)
			}
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionPruned, Err: err})
			continue
		}
		if err != nil {
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed, Err: err})
			continue
		}

		doc, err := decodeFirstFile(g)
		if err != nil {
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed, Err: err})
			continue
		}

		s := doc.Snippet()
		if s.FolderID == "" {
			results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionFailed,
				Err: fmt.Errorf("document has no folder reference")})
			continue
		}
		if !known[s.FolderID] && !rebuilt[s.FolderID] {
			name := doc.Folder
			if name == "" {
				name = "Recovered"
			}
			col.Folders = append(col.Folders, record.Folder{
				ID:           s.FolderID,
				Name:         name,
				LastModified: record.NowMillis(),
			})
			rebuilt[s.FolderID] = true
		}

		col.Snippets = append(col.Snippets, s)
		results = append(results, ItemResult{SnippetID: snippetID, GistID: gistID, Action: ActionPulled})
	}

	return col, results, nil
}

// decodeFirstFile decodes the document out of a gist's file set. Gists
// the channel writes hold exactly one file; foreign edits may add more,
// in which case the first decodable file wins.
func decodeFirstFile(g Gist) (Document, error) {
	names := make([]string, 0, len(g.Files))
	for name := range g.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var lastErr error
	for _, name := range names {
		doc, err := DecodeDocument(g.Files[name].Content)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("gist %s has no files", g.ID)
	}
	return Document{}, lastErr
}
