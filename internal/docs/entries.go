package docs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

// ImportOutcome reports a completed file import.
type ImportOutcome struct {
	Key  string
	Hash models.Hash
	Size uint64
}

// SetEntry writes value under (author, key). The value bytes land in the
// blob store and the entry records their hash. When the document carries a
// schema the value must be a JSON document that validates against it.
func (h *Handle) SetEntry(ctx context.Context, author models.AuthorID, key string, value []byte) (models.Entry, error) {
	if err := h.checkWrite(author, key); err != nil {
		return models.Entry{}, err
	}
	// an empty value is indistinguishable from a tombstone record
	if len(value) == 0 {
		return models.Entry{}, malformedCode(ErrCodeEmptyContent, fmt.Errorf("entry value must not be empty"))
	}

	state := h.state
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.dropped {
		return models.Entry{}, errDocumentDropped()
	}

	schema, err := h.loadSchemaLocked(ctx)
	if err != nil {
		return models.Entry{}, err
	}
	if schema != nil {
		var decoded any
		if err := json.Unmarshal(value, &decoded); err != nil {
			return models.Entry{}, malformedCode(ErrCodeInvalidJSON, fmt.Errorf("value is not valid JSON: %w", err))
		}
		if err := schema.Validate(decoded); err != nil {
			return models.Entry{}, validationCode(ErrCodeSchemaViolation, fmt.Errorf("value rejected by schema: %w", err))
		}
	}

	put, err := h.svc.blobs.Put(ctx, bytes.NewReader(value))
	if err != nil {
		return models.Entry{}, resourceCode(ErrCodeBlobFailure, fmt.Errorf("store value: %w", err))
	}

	return h.insertLocked(ctx, author, key, put.Hash, put.Size)
}

// SetEntryFile imports a file's bytes as the value for (author, key). File
// imports carry no structure, so documents with a schema refuse them.
func (h *Handle) SetEntryFile(ctx context.Context, author models.AuthorID, key, path string) (ImportOutcome, error) {
	if err := h.checkWrite(author, key); err != nil {
		return ImportOutcome{}, err
	}
	if strings.TrimSpace(path) == "" {
		return ImportOutcome{}, malformed(fmt.Errorf("file path is required"))
	}

	state := h.state
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.dropped {
		return ImportOutcome{}, errDocumentDropped()
	}

	schema, err := h.loadSchemaLocked(ctx)
	if err != nil {
		return ImportOutcome{}, err
	}
	if schema != nil {
		return ImportOutcome{}, capabilityCode(ErrCodeFileImportDenied,
			fmt.Errorf("file import is not allowed on a document with a schema"))
	}

	put, err := h.svc.blobs.PutFile(ctx, path)
	if err != nil {
		// a directory or missing path does not resolve to an existing file
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return ImportOutcome{}, notFoundCode(ErrCodeFileNotFound, fmt.Errorf("no file at %s", path))
		}
		return ImportOutcome{}, resourceCode(ErrCodeBlobFailure, fmt.Errorf("import file: %w", err))
	}

	entry, err := h.insertLocked(ctx, author, key, put.Hash, put.Size)
	if err != nil {
		return ImportOutcome{}, err
	}
	return ImportOutcome{Key: key, Hash: entry.Record.Hash, Size: put.Size}, nil
}

// GetEntry fetches the latest record for (author, key). Tombstoned entries
// only surface with includeEmpty; otherwise they read as not found. The
// value bytes are fetched separately via OpenContent or Service.ReadBlob.
func (h *Handle) GetEntry(ctx context.Context, author models.AuthorID, key string, includeEmpty bool) (*models.Entry, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	if author.IsZero() {
		return nil, malformedCode(ErrCodeInvalidAuthorID, fmt.Errorf("author id is required"))
	}

	entry, err := h.svc.store.GetEntry(ctx, h.state.id, author, key, includeEmpty)
	if err != nil {
		return nil, storeError(err)
	}
	if entry == nil {
		return nil, notFoundCode(ErrCodeEntryNotFound, fmt.Errorf("no entry for key %q by author %s", key, author))
	}
	return entry, nil
}

// OpenContent fetches the live entry for (author, key) and opens its value.
// The caller owns the returned reader.
func (h *Handle) OpenContent(ctx context.Context, author models.AuthorID, key string) (*models.Entry, io.ReadCloser, error) {
	entry, err := h.GetEntry(ctx, author, key, false)
	if err != nil {
		return nil, nil, err
	}
	rc, err := h.svc.ReadBlob(ctx, entry.Record.Hash)
	if err != nil {
		return nil, nil, err
	}
	return entry, rc, nil
}

// DeleteEntry tombstones the live entry at (author, key) and returns how
// many entries were removed: 1, or 0 when nothing live was there. Deleting
// an absent key is not an error.
func (h *Handle) DeleteEntry(ctx context.Context, author models.AuthorID, key string) (int, error) {
	if err := h.checkWrite(author, key); err != nil {
		return 0, err
	}

	state := h.state
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.dropped {
		return 0, errDocumentDropped()
	}

	existing, err := h.svc.store.GetEntry(ctx, state.id, author, key, false)
	if err != nil {
		return 0, storeError(err)
	}
	if existing == nil {
		return 0, nil
	}

	ts, err := state.nextTimestamp(ctx, h.svc.store, author)
	if err != nil {
		return 0, err
	}
	tomb := models.Tombstone(models.EntryID{Doc: state.id, Key: key, Author: author}, ts)
	applied, err := h.svc.store.PutEntry(ctx, tomb)
	if err != nil {
		return 0, resourceCode(ErrCodeStoreFailure, fmt.Errorf("delete entry: %w", err))
	}
	if !applied {
		return 0, nil
	}
	state.emit(models.EntryEvent{Kind: models.EventInsertLocal, Entry: tomb})
	return 1, nil
}

// DeleteEntries tombstones every live entry of the author whose key starts
// with prefix, all at one timestamp, and returns the number removed.
func (h *Handle) DeleteEntries(ctx context.Context, author models.AuthorID, prefix string) (int, error) {
	if err := h.checkWrite(author, prefix); err != nil {
		return 0, err
	}

	state := h.state
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.dropped {
		return 0, errDocumentDropped()
	}

	ts, err := state.nextTimestamp(ctx, h.svc.store, author)
	if err != nil {
		return 0, err
	}
	keys, err := h.svc.store.DeleteEntries(ctx, state.id, author, prefix, ts)
	if err != nil {
		return 0, resourceCode(ErrCodeStoreFailure, fmt.Errorf("delete entries: %w", err))
	}
	for _, key := range keys {
		tomb := models.Tombstone(models.EntryID{Doc: state.id, Key: key, Author: author}, ts)
		state.emit(models.EntryEvent{Kind: models.EventInsertLocal, Entry: tomb})
	}
	return len(keys), nil
}

// checkWrite bundles the preconditions shared by every mutation: open
// handle, write capability, a valid non-reserved key and a usable author.
func (h *Handle) checkWrite(author models.AuthorID, key string) error {
	if err := h.guard(); err != nil {
		return err
	}
	if err := h.requireWrite(); err != nil {
		return err
	}
	if author.IsZero() {
		return malformedCode(ErrCodeInvalidAuthorID, fmt.Errorf("author id is required"))
	}
	if err := models.ValidateKey(key); err != nil {
		return malformedCode(ErrCodeInvalidKey, err)
	}
	if strings.EqualFold(key, models.ReservedSchemaKey) {
		return malformedCode(ErrCodeReservedKey, fmt.Errorf("key %q is reserved", models.ReservedSchemaKey))
	}
	return nil
}

// insertLocked issues the timestamp, applies the write and notifies
// subscribers. Callers hold the document mutex.
func (h *Handle) insertLocked(ctx context.Context, author models.AuthorID, key string, hash models.Hash, size uint64) (models.Entry, error) {
	state := h.state
	ts, err := state.nextTimestamp(ctx, h.svc.store, author)
	if err != nil {
		return models.Entry{}, err
	}
	entry := models.Entry{
		ID:     models.EntryID{Doc: state.id, Key: key, Author: author},
		Record: models.Record{Hash: hash, Len: size, Timestamp: ts},
	}
	applied, err := h.svc.store.PutEntry(ctx, entry)
	if err != nil {
		return models.Entry{}, resourceCode(ErrCodeStoreFailure, fmt.Errorf("write entry: %w", err))
	}
	if !applied {
		return models.Entry{}, conflict(fmt.Errorf("a newer record for key %q exists", key))
	}
	state.emit(models.EntryEvent{Kind: models.EventInsertLocal, Entry: entry})
	return entry, nil
}

func storeError(err error) error {
	if errors.Is(err, replica.ErrCorrupt) {
		return resourceCode(ErrCodeCorrupt, err)
	}
	return resourceCode(ErrCodeStoreFailure, err)
}
