package docs

import (
	"context"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dhiway/starter-kit/internal/models"
)

// schemaResource is the synthetic URL compiled schemas are registered under.
const schemaResource = "schema.json"

// AddSchema attaches a JSON Schema to the document. A schema can be attached
// exactly once and only while the document has no live entries; afterwards
// every SetEntry value must validate against it. Returns the content hash of
// the schema text, which is also readable through ReadBlob.
func (h *Handle) AddSchema(ctx context.Context, schemaText string) (models.Hash, error) {
	if err := h.guard(); err != nil {
		return models.Hash{}, err
	}
	if err := h.requireWrite(); err != nil {
		return models.Hash{}, err
	}
	if strings.TrimSpace(schemaText) == "" {
		return models.Hash{}, malformed(fmt.Errorf("schema text is required"))
	}
	var decoded any
	if err := json.Unmarshal([]byte(schemaText), &decoded); err != nil {
		return models.Hash{}, malformedCode(ErrCodeInvalidJSON, fmt.Errorf("schema is not valid JSON: %w", err))
	}
	compiled, err := jsonschema.CompileString(schemaResource, schemaText)
	if err != nil {
		return models.Hash{}, malformedCode(ErrCodeInvalidSchema, fmt.Errorf("schema does not compile: %w", err))
	}

	state := h.state
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.dropped {
		return models.Hash{}, errDocumentDropped()
	}

	live, err := h.svc.store.CountLiveEntries(ctx, state.id)
	if err != nil {
		return models.Hash{}, storeError(err)
	}
	if live > 0 {
		return models.Hash{}, conflictCode(ErrCodeDocumentNotEmpty,
			fmt.Errorf("cannot attach schema: document has %d entries", live))
	}

	// schema content stays readable by hash, like any entry value
	if _, err := h.svc.blobs.Put(ctx, strings.NewReader(schemaText)); err != nil {
		return models.Hash{}, resourceCode(ErrCodeBlobFailure, fmt.Errorf("store schema: %w", err))
	}

	hash := models.HashOf([]byte(schemaText))
	applied, err := h.svc.store.SetSchema(ctx, state.id, schemaText, hash)
	if err != nil {
		return models.Hash{}, storeError(err)
	}
	if !applied {
		return models.Hash{}, conflictCode(ErrCodeSchemaExists, fmt.Errorf("document already has a schema"))
	}

	state.schema = compiled
	state.schemaLoaded = true
	h.svc.log().Info("schema attached", "doc", state.id, "hash", hash)
	return hash, nil
}

// Schema returns the attached schema text and its content hash. Documents
// without a schema read as not found.
func (h *Handle) Schema(ctx context.Context) (string, models.Hash, error) {
	if err := h.guard(); err != nil {
		return "", models.Hash{}, err
	}
	ns, err := h.svc.store.GetNamespace(ctx, h.state.id)
	if err != nil {
		return "", models.Hash{}, storeError(err)
	}
	if ns == nil {
		return "", models.Hash{}, errDocumentDropped()
	}
	if !ns.HasSchema() {
		return "", models.Hash{}, notFoundCode(ErrCodeSchemaNotFound,
			fmt.Errorf("document %s has no schema", h.state.id))
	}
	return ns.SchemaText, ns.SchemaHash, nil
}

// loadSchemaLocked returns the compiled schema, or nil when none is
// attached. The first call per document hits the store; afterwards the
// in-memory copy is authoritative because AddSchema updates it under the
// same mutex. Callers hold the document mutex.
func (h *Handle) loadSchemaLocked(ctx context.Context) (*jsonschema.Schema, error) {
	state := h.state
	if state.schemaLoaded {
		return state.schema, nil
	}
	ns, err := h.svc.store.GetNamespace(ctx, state.id)
	if err != nil {
		return nil, storeError(err)
	}
	if ns == nil {
		return nil, errDocumentDropped()
	}
	if !ns.HasSchema() {
		state.schema = nil
		state.schemaLoaded = true
		return nil, nil
	}
	compiled, err := jsonschema.CompileString(schemaResource, ns.SchemaText)
	if err != nil {
		return nil, resourceCode(ErrCodeCorrupt, fmt.Errorf("stored schema does not compile: %w", err))
	}
	state.schema = compiled
	state.schemaLoaded = true
	return compiled, nil
}
