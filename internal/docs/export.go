package docs

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dhiway/starter-kit/internal/models"
)

// ExportBundle is a complete point-in-time dump of one document: identity,
// capability, schema, download policy and every live entry.
type ExportBundle struct {
	ID         string                `json:"doc_id" yaml:"doc_id"`
	Capability models.Capability     `json:"capability" yaml:"capability"`
	Schema     string                `json:"schema,omitempty" yaml:"schema,omitempty"`
	SchemaHash string                `json:"schema_hash,omitempty" yaml:"schema_hash,omitempty"`
	Policy     models.DownloadPolicy `json:"download_policy" yaml:"download_policy"`
	Entries    []ExportEntry         `json:"entries" yaml:"entries"`
}

// ExportEntry is one live entry in an export bundle. Content carries the
// value bytes base64-encoded and is only present when requested.
type ExportEntry struct {
	Key       string `json:"key" yaml:"key"`
	Author    string `json:"author" yaml:"author"`
	Hash      string `json:"hash" yaml:"hash"`
	Len       uint64 `json:"len" yaml:"len"`
	Timestamp uint64 `json:"timestamp" yaml:"timestamp"`
	Content   string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Export assembles the document bundle, optionally inlining entry content
// from the blob store. Entries are ordered by (key, author).
func (h *Handle) Export(ctx context.Context, includeContent bool) (*ExportBundle, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}

	ns, err := h.svc.store.GetNamespace(ctx, h.state.id)
	if err != nil {
		return nil, storeError(err)
	}
	if ns == nil {
		return nil, errDocumentDropped()
	}

	entries, err := h.GetEntries(ctx, models.Query{})
	if err != nil {
		return nil, err
	}

	policy := ns.Policy
	if policy.Kind == "" {
		policy = models.DefaultDownloadPolicy()
	}
	bundle := &ExportBundle{
		ID:         ns.ID.String(),
		Capability: ns.Capability,
		Schema:     ns.SchemaText,
		Policy:     policy,
		Entries:    make([]ExportEntry, 0, len(entries)),
	}
	if ns.HasSchema() {
		bundle.SchemaHash = ns.SchemaHash.String()
	}

	for _, entry := range entries {
		exported := ExportEntry{
			Key:       entry.ID.Key,
			Author:    entry.ID.Author.String(),
			Hash:      entry.Record.Hash.String(),
			Len:       entry.Record.Len,
			Timestamp: entry.Record.Timestamp,
		}
		if includeContent {
			content, err := h.readAll(ctx, entry.Record.Hash)
			if err != nil {
				return nil, err
			}
			exported.Content = base64.StdEncoding.EncodeToString(content)
		}
		bundle.Entries = append(bundle.Entries, exported)
	}
	return bundle, nil
}

func (h *Handle) readAll(ctx context.Context, hash models.Hash) ([]byte, error) {
	rc, err := h.svc.ReadBlob(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, resourceCode(ErrCodeBlobFailure, fmt.Errorf("read blob %s: %w", hash, err))
	}
	return data, nil
}
