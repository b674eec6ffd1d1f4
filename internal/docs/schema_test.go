package docs

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/dhiway/starter-kit/internal/models"
)

const ownerSchema = `{"type":"object","required":["owner"],"properties":{"owner":{"type":"string"}}}`

func TestAddSchemaValidatesSubsequentWrites(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)
	author := testAuthor(t)

	hash, err := handle.AddSchema(ctx, ownerSchema)
	if err != nil {
		t.Fatalf("add schema: %v", err)
	}
	if hash != models.HashOf([]byte(ownerSchema)) {
		t.Fatal("schema hash is not the content hash")
	}

	if _, err := handle.SetEntry(ctx, author, "a", []byte(`{"owner":"alice"}`)); err != nil {
		t.Fatalf("conforming write: %v", err)
	}

	_, err = handle.SetEntry(ctx, author, "b", []byte(`{"owner":5}`))
	wantKind(t, err, KindValidation)
	wantCode(t, err, ErrCodeSchemaViolation)

	_, err = handle.SetEntry(ctx, author, "c", []byte(`{"missing":"owner"}`))
	wantKind(t, err, KindValidation)

	_, err = handle.SetEntry(ctx, author, "d", []byte(`not json at all`))
	wantKind(t, err, KindMalformedInput)
	wantCode(t, err, ErrCodeInvalidJSON)

	// only the conforming write landed
	entries, err := handle.GetEntries(ctx, models.Query{})
	if err != nil {
		t.Fatalf("get entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID.Key != "a" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestAddSchemaRequiresEmptyDocument(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)
	author := testAuthor(t)

	mustSet(t, handle, author, "k", "v")

	_, err := handle.AddSchema(ctx, ownerSchema)
	wantKind(t, err, KindConflict)
	wantCode(t, err, ErrCodeDocumentNotEmpty)

	// tombstoned entries do not count as live
	if _, err := handle.DeleteEntry(ctx, author, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := handle.AddSchema(ctx, ownerSchema); err != nil {
		t.Fatalf("add schema on emptied document: %v", err)
	}
}

func TestAddSchemaIsWriteOnce(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	if _, err := handle.AddSchema(ctx, ownerSchema); err != nil {
		t.Fatalf("add schema: %v", err)
	}
	_, err := handle.AddSchema(ctx, `{"type":"object"}`)
	wantKind(t, err, KindConflict)
	wantCode(t, err, ErrCodeSchemaExists)
}

func TestAddSchemaRejectsMalformedInput(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	_, err := handle.AddSchema(ctx, "")
	wantKind(t, err, KindMalformedInput)

	_, err = handle.AddSchema(ctx, "{ not json")
	wantKind(t, err, KindMalformedInput)
	wantCode(t, err, ErrCodeInvalidJSON)

	// valid JSON that is not a valid JSON Schema
	_, err = handle.AddSchema(ctx, `{"type":12}`)
	wantKind(t, err, KindMalformedInput)
	wantCode(t, err, ErrCodeInvalidSchema)
}

func TestSchemaGetterAndBlob(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	_, _, err := handle.Schema(ctx)
	wantKind(t, err, KindNotFound)
	wantCode(t, err, ErrCodeSchemaNotFound)

	hash, err := handle.AddSchema(ctx, ownerSchema)
	if err != nil {
		t.Fatalf("add schema: %v", err)
	}

	text, gotHash, err := handle.Schema(ctx)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if text != ownerSchema || gotHash != hash {
		t.Fatal("schema round trip mismatch")
	}

	// the schema text is also readable by hash, like entry content
	rc, err := svc.ReadBlob(ctx, hash)
	if err != nil {
		t.Fatalf("read schema blob: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != ownerSchema {
		t.Fatal("schema blob content mismatch")
	}
}

func TestSchemaSurvivesReopen(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)
	id := handle.Document()
	author := testAuthor(t)

	if _, err := handle.AddSchema(ctx, ownerSchema); err != nil {
		t.Fatalf("add schema: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// reopening rebuilds in-memory state from the store
	reopened, err := svc.Open(ctx, id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	_, err = reopened.SetEntry(ctx, author, "k", []byte(`{"owner":7}`))
	wantKind(t, err, KindValidation)

	text, _, err := reopened.Schema(ctx)
	if err != nil || text != ownerSchema {
		t.Fatalf("schema after reopen: %q (%v)", text, err)
	}
}

func TestSchemaAttachSerializedAgainstWrites(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	author := testAuthor(t)

	// Whatever the interleaving, a document must never end up holding both
	// a schema and an entry that violates it.
	for i := 0; i < 25; i++ {
		handle := testDoc(t, svc)

		var wg sync.WaitGroup
		var schemaErr, writeErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, schemaErr = handle.AddSchema(ctx, ownerSchema)
		}()
		go func() {
			defer wg.Done()
			_, writeErr = handle.SetEntry(ctx, author, "k", []byte(`"not an object"`))
		}()
		wg.Wait()

		if schemaErr == nil && writeErr == nil {
			t.Fatal("schema attach and non-conforming write both succeeded")
		}
		handle.Close()
	}
}
