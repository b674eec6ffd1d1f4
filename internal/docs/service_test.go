package docs

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dhiway/starter-kit/internal/blobstore"
	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

func testService(t *testing.T) *Service {
	t.Helper()
	store, err := replica.Open(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	blobs, err := blobstore.NewLocalCAS(t.TempDir(), true)
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, blobs, logger, Options{
		ShareAddrs: []string{"192.0.2.10:4433"},
		RelayURL:   "https://relay.example.net",
	})
	t.Cleanup(func() {
		svc.Close()
		store.Close()
	})
	return svc
}

func testDoc(t *testing.T, svc *Service) *Handle {
	t.Helper()
	ctx := context.Background()
	id, err := svc.CreateDocument(ctx)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	handle, err := svc.Open(ctx, id)
	if err != nil {
		t.Fatalf("open document: %v", err)
	}
	t.Cleanup(func() { handle.Close() })
	return handle
}

func testAuthor(t *testing.T) models.AuthorID {
	t.Helper()
	author, err := models.NewAuthorID()
	if err != nil {
		t.Fatalf("new author: %v", err)
	}
	return author
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected kind %s, got %s (%v)", kind, got, err)
	}
}

func wantCode(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", code)
	}
	if got := CodeOf(err); got != code {
		t.Fatalf("expected code %d, got %d (%v)", code, got, err)
	}
}

func TestCreateOpenAndHandleCounts(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	id, err := svc.CreateDocument(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Open(ctx, id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := svc.Open(ctx, id)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}

	status, err := second.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.HandleCount != 2 {
		t.Fatalf("expected 2 handles, got %d", status.HandleCount)
	}
	if status.Capability != models.CapabilityWrite {
		t.Fatalf("expected write capability, got %q", status.Capability)
	}
	if status.SyncEnabled {
		t.Fatal("expected sync off for a locally created document")
	}

	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	status, err = second.Status(ctx)
	if err != nil {
		t.Fatalf("status after close: %v", err)
	}
	if status.HandleCount != 1 {
		t.Fatalf("expected 1 handle, got %d", status.HandleCount)
	}

	if err := second.Close(); err != nil {
		t.Fatalf("close second: %v", err)
	}
	if _, err := second.Status(ctx); KindOf(err) != KindClosed {
		t.Fatalf("expected closed error after close, got %v", err)
	}
}

func TestOpenUnknownDocument(t *testing.T) {
	svc := testService(t)
	id, _ := models.NewDocumentID()

	_, err := svc.Open(context.Background(), id)
	wantKind(t, err, KindNotFound)
	wantCode(t, err, ErrCodeDocumentNotFound)
}

func TestListDocuments(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	first, err := svc.CreateDocument(ctx)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateDocument(ctx)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	infos, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(infos))
	}
	seen := map[models.DocumentID]models.Capability{}
	for _, info := range infos {
		seen[info.ID] = info.Capability
	}
	if seen[first] != models.CapabilityWrite || seen[second] != models.CapabilityWrite {
		t.Fatalf("unexpected listing: %v", seen)
	}
}

func TestDropIsTerminal(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)
	id := handle.Document()
	author := testAuthor(t)

	if _, err := handle.SetEntry(ctx, author, "k", []byte("v")); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	if err := svc.Drop(ctx, id); err != nil {
		t.Fatalf("drop: %v", err)
	}

	// the open handle observes the drop and fails not-found, the same as
	// a fresh Open on the dropped id
	_, err := handle.Status(ctx)
	wantKind(t, err, KindNotFound)
	wantCode(t, err, ErrCodeDocumentDropped)
	_, err = handle.SetEntry(ctx, author, "k2", []byte("v"))
	wantKind(t, err, KindNotFound)
	_, err = handle.GetEntries(ctx, models.Query{})
	wantKind(t, err, KindNotFound)
	wantCode(t, err, ErrCodeDocumentDropped)

	// the id cannot be reopened or dropped again
	_, err = svc.Open(ctx, id)
	wantKind(t, err, KindNotFound)
	err = svc.Drop(ctx, id)
	wantKind(t, err, KindNotFound)
}

func TestServiceCloseStopsOperations(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	if err := svc.Close(); err != nil {
		t.Fatalf("close service: %v", err)
	}

	_, err := svc.CreateDocument(ctx)
	wantKind(t, err, KindClosed)
	wantCode(t, err, ErrCodeServiceClosed)

	_, err = handle.Status(ctx)
	wantKind(t, err, KindClosed)

	_, err = svc.List(ctx)
	wantKind(t, err, KindClosed)
}

func TestShareAndJoinRoundTrip(t *testing.T) {
	origin := testService(t)
	ctx := context.Background()
	handle := testDoc(t, origin)

	readTicket, err := handle.Share(ctx, models.ShareModeRead, models.AddrOptionRelayAndAddresses)
	if err != nil {
		t.Fatalf("share read: %v", err)
	}

	// a second node joins read-only
	other := testService(t)
	joined, err := other.Join(ctx, readTicket)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Document() != handle.Document() {
		t.Fatalf("joined wrong document: %s", joined.Document())
	}
	if joined.Capability() != models.CapabilityRead {
		t.Fatalf("expected read capability, got %q", joined.Capability())
	}

	status, err := joined.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.SyncEnabled {
		t.Fatal("expected sync enabled after join")
	}

	author := testAuthor(t)
	_, err = joined.SetEntry(ctx, author, "k", []byte("v"))
	wantKind(t, err, KindCapability)

	// joining again with a write ticket upgrades the capability
	writeTicket, err := handle.Share(ctx, models.ShareModeWrite, models.AddrOptionID)
	if err != nil {
		t.Fatalf("share write: %v", err)
	}
	upgraded, err := other.Join(ctx, writeTicket)
	if err != nil {
		t.Fatalf("join write: %v", err)
	}
	defer upgraded.Close()
	if upgraded.Capability() != models.CapabilityWrite {
		t.Fatalf("expected write capability after upgrade, got %q", upgraded.Capability())
	}
	if _, err := upgraded.SetEntry(ctx, author, "k", []byte("v")); err != nil {
		t.Fatalf("set entry after upgrade: %v", err)
	}
	joined.Close()
}

func TestShareWriteNeedsWriteCapability(t *testing.T) {
	origin := testService(t)
	ctx := context.Background()
	handle := testDoc(t, origin)

	readTicket, err := handle.Share(ctx, models.ShareModeRead, models.AddrOptionID)
	if err != nil {
		t.Fatalf("share read: %v", err)
	}

	other := testService(t)
	joined, err := other.Join(ctx, readTicket)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer joined.Close()

	if _, err := joined.Share(ctx, models.ShareModeRead, models.AddrOptionID); err != nil {
		t.Fatalf("read ticket from read handle: %v", err)
	}
	_, err = joined.Share(ctx, models.ShareModeWrite, models.AddrOptionID)
	wantKind(t, err, KindCapability)
}

func TestJoinRejectsMalformedTicket(t *testing.T) {
	svc := testService(t)

	for _, ticket := range []string{"", "nope", "doc!!!not-base64!!!", "doceyJ2IjoyfQ"} {
		_, err := svc.Join(context.Background(), ticket)
		wantKind(t, err, KindMalformedInput)
		wantCode(t, err, ErrCodeInvalidTicket)
	}
}

func TestLeaveStopsSync(t *testing.T) {
	origin := testService(t)
	ctx := context.Background()
	handle := testDoc(t, origin)

	ticket, err := handle.Share(ctx, models.ShareModeRead, models.AddrOptionAddresses)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	other := testService(t)
	joined, err := other.Join(ctx, ticket)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer joined.Close()

	if err := joined.Leave(ctx); err != nil {
		t.Fatalf("leave: %v", err)
	}
	status, err := joined.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.SyncEnabled {
		t.Fatal("expected sync disabled after leave")
	}

	if err := joined.StartSync(ctx, []string{"192.0.2.7:1"}); err != nil {
		t.Fatalf("start sync: %v", err)
	}
	status, _ = joined.Status(ctx)
	if !status.SyncEnabled {
		t.Fatal("expected sync re-enabled")
	}
}

func TestReadBlobUnknownHash(t *testing.T) {
	svc := testService(t)

	_, err := svc.ReadBlob(context.Background(), models.HashOf([]byte("never stored")))
	wantKind(t, err, KindNotFound)
	wantCode(t, err, ErrCodeBlobNotFound)
}
