package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the GitHub API root. Tests point the client at an
// httptest server instead.
const DefaultBaseURL = "https://api.github.com"

var (
	// ErrAuthInvalid indicates the stored credential was rejected. It is
	// fatal to the whole sync attempt and must prompt re-authentication.
	ErrAuthInvalid = errors.New("remote credential invalid or expired")

	// ErrDocumentMissing indicates one remote document no longer exists
	// (deleted out-of-band). Per-item and recoverable: push recreates
	// the document, pull prunes the mapping.
	ErrDocumentMissing = errors.New("remote document missing")
)

// Gist is the remote document shape the channel cares about.
type Gist struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Public      bool                `json:"public"`
	Files       map[string]GistFile `json:"files"`
}

// GistFile is one file inside a gist.
type GistFile struct {
	Content string `json:"content"`
}

// Client is a minimal GitHub Gists API client. Documents are created
// private (unlisted) and keyed by the server-issued id recorded in the
// mapping ledger.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client authenticating with the given token.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API root.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Create uploads a new private gist and returns the server-issued id.
func (c *Client) Create(ctx context.Context, description, filename, content string) (string, error) {
	body := Gist{
		Description: description,
		Public:      false,
		Files:       map[string]GistFile{filename: {Content: content}},
	}

	var created Gist
	if err := c.do(ctx, http.MethodPost, "/gists", &body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("create returned no gist id")
	}
	return created.ID, nil
}

// gistPatch is the PATCH payload. A nil file entry marshals to null,
// which deletes that file server-side.
type gistPatch struct {
	Description string               `json:"description,omitempty"`
	Files       map[string]*GistFile `json:"files"`
}

// Update overwrites an existing gist's description and content. Names
// in dropFiles are removed, so a renamed snippet does not leave its
// old file behind.
func (c *Client) Update(ctx context.Context, id, description, filename, content string, dropFiles []string) error {
	files := map[string]*GistFile{filename: {Content: content}}
	for _, name := range dropFiles {
		if name != filename {
			files[name] = nil
		}
	}
	body := gistPatch{Description: description, Files: files}
	return c.do(ctx, http.MethodPatch, "/gists/"+id, &body, nil)
}

// Fetch retrieves one gist by id.
func (c *Client) Fetch(ctx context.Context, id string) (Gist, error) {
	var g Gist
	if err := c.do(ctx, http.MethodGet, "/gists/"+id, nil, &g); err != nil {
		return Gist{}, err
	}
	return g, nil
}

// Delete removes a gist. Deleting an already-gone gist reports
// ErrDocumentMissing; callers treat that as success when pruning.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/gists/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s returned %d", ErrAuthInvalid, method, path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrDocumentMissing, path)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
