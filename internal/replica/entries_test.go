package replica

import (
	"context"
	"errors"
	"testing"

	"github.com/dhiway/starter-kit/internal/models"
)

func putTestEntry(t *testing.T, st *Store, id models.DocumentID, author models.AuthorID, key, value string, ts uint64) models.Entry {
	t.Helper()
	entry := models.Entry{
		ID:     models.EntryID{Doc: id, Key: key, Author: author},
		Record: models.Record{Hash: models.HashOf([]byte(value)), Len: uint64(len(value)), Timestamp: ts},
	}
	applied, err := st.PutEntry(context.Background(), entry)
	if err != nil {
		t.Fatalf("put entry %q: %v", key, err)
	}
	if !applied {
		t.Fatalf("expected entry %q to apply", key)
	}
	return entry
}

func TestPutEntryLastWriteWins(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	author, _ := models.NewAuthorID()

	putTestEntry(t, st, id, author, "k", "first", 10)
	putTestEntry(t, st, id, author, "k", "second", 20)

	// an older write must not clobber the newer record
	stale := models.Entry{
		ID:     models.EntryID{Doc: id, Key: "k", Author: author},
		Record: models.Record{Hash: models.HashOf([]byte("old")), Len: 3, Timestamp: 15},
	}
	applied, err := st.PutEntry(ctx, stale)
	if err != nil {
		t.Fatalf("put stale entry: %v", err)
	}
	if applied {
		t.Fatal("expected stale write to be ignored")
	}

	got, err := st.GetEntry(ctx, id, author, "k", false)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.Record.Timestamp != 20 || got.Record.Hash != models.HashOf([]byte("second")) {
		t.Fatalf("expected newest record, got %+v", got.Record)
	}
}

func TestGetEntryTombstoneVisibility(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	author, _ := models.NewAuthorID()

	putTestEntry(t, st, id, author, "k", "v", 10)
	tomb := models.Tombstone(models.EntryID{Doc: id, Key: "k", Author: author}, 11)
	if _, err := st.PutEntry(ctx, tomb); err != nil {
		t.Fatalf("put tombstone: %v", err)
	}

	got, err := st.GetEntry(ctx, id, author, "k", false)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got != nil {
		t.Fatalf("expected tombstone hidden, got %+v", got)
	}

	got, err = st.GetEntry(ctx, id, author, "k", true)
	if err != nil {
		t.Fatalf("get entry include_empty: %v", err)
	}
	if got == nil || !got.IsEmpty() {
		t.Fatalf("expected visible tombstone, got %+v", got)
	}
}

func TestScanEntriesFilters(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	alice, _ := models.NewAuthorID()
	bob, _ := models.NewAuthorID()

	putTestEntry(t, st, id, alice, "users/alice", "a", 1)
	putTestEntry(t, st, id, alice, "users/amy", "b", 2)
	putTestEntry(t, st, id, bob, "users/alice", "c", 3)
	putTestEntry(t, st, id, alice, "config", "d", 4)

	all, err := st.ScanEntries(ctx, id, ScanFilter{})
	if err != nil {
		t.Fatalf("scan all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	// storage order is key then author
	if all[0].ID.Key != "config" || all[1].ID.Key != "users/alice" {
		t.Fatalf("unexpected order: %q, %q", all[0].ID.Key, all[1].ID.Key)
	}

	byPrefix, err := st.ScanEntries(ctx, id, ScanFilter{KeyPrefix: "users/"})
	if err != nil {
		t.Fatalf("scan prefix: %v", err)
	}
	if len(byPrefix) != 3 {
		t.Fatalf("expected 3 prefixed entries, got %d", len(byPrefix))
	}

	byAuthor, err := st.ScanEntries(ctx, id, ScanFilter{Author: &bob})
	if err != nil {
		t.Fatalf("scan author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].ID.Author != bob {
		t.Fatalf("expected bob's entry, got %+v", byAuthor)
	}

	byKey, err := st.ScanEntries(ctx, id, ScanFilter{Key: "users/alice"})
	if err != nil {
		t.Fatalf("scan key: %v", err)
	}
	if len(byKey) != 2 {
		t.Fatalf("expected 2 entries for exact key, got %d", len(byKey))
	}
}

func TestScanEntriesPrefixTreatsGlobsLiterally(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	author, _ := models.NewAuthorID()

	putTestEntry(t, st, id, author, "a%b", "v", 1)
	putTestEntry(t, st, id, author, "axb", "v", 2)

	got, err := st.ScanEntries(ctx, id, ScanFilter{KeyPrefix: "a%"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 1 || got[0].ID.Key != "a%b" {
		t.Fatalf("expected literal prefix match only, got %+v", got)
	}
}

func TestDeleteEntriesByPrefix(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	alice, _ := models.NewAuthorID()
	bob, _ := models.NewAuthorID()

	putTestEntry(t, st, id, alice, "users/alice", "a", 1)
	putTestEntry(t, st, id, alice, "users/amy", "b", 2)
	putTestEntry(t, st, id, alice, "config", "c", 3)
	putTestEntry(t, st, id, bob, "users/bob", "d", 4)

	deleted, err := st.DeleteEntries(ctx, id, alice, "users/", 100)
	if err != nil {
		t.Fatalf("delete entries: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %v", deleted)
	}
	if deleted[0] != "users/alice" || deleted[1] != "users/amy" {
		t.Fatalf("unexpected deleted keys: %v", deleted)
	}

	// bob's entries and alice's non-matching key survive
	live, err := st.CountLiveEntries(ctx, id)
	if err != nil {
		t.Fatalf("count live: %v", err)
	}
	if live != 2 {
		t.Fatalf("expected 2 live entries, got %d", live)
	}

	// tombstones remain visible with include_empty
	tombs, err := st.ScanEntries(ctx, id, ScanFilter{Author: &alice, KeyPrefix: "users/", IncludeEmpty: true})
	if err != nil {
		t.Fatalf("scan tombstones: %v", err)
	}
	if len(tombs) != 2 || !tombs[0].IsEmpty() || !tombs[1].IsEmpty() {
		t.Fatalf("expected 2 tombstones, got %+v", tombs)
	}
	if tombs[0].Record.Timestamp != 100 {
		t.Fatalf("expected tombstone timestamp 100, got %d", tombs[0].Record.Timestamp)
	}

	// deleting again is a no-op
	deleted, err = st.DeleteEntries(ctx, id, alice, "users/", 101)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if len(deleted) != 0 {
		t.Fatalf("expected 0 deletions, got %v", deleted)
	}
}

func TestDeleteEntriesEmptyPrefixRemovesAll(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	author, _ := models.NewAuthorID()

	putTestEntry(t, st, id, author, "a", "1", 1)
	putTestEntry(t, st, id, author, "b", "2", 2)

	deleted, err := st.DeleteEntries(ctx, id, author, "", 50)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deletions, got %v", deleted)
	}
}

func TestMaxTimestamp(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	author, _ := models.NewAuthorID()

	ts, err := st.MaxTimestamp(ctx, id, author)
	if err != nil {
		t.Fatalf("max timestamp: %v", err)
	}
	if ts != 0 {
		t.Fatalf("expected 0 for fresh author, got %d", ts)
	}

	putTestEntry(t, st, id, author, "a", "1", 77)
	putTestEntry(t, st, id, author, "b", "2", 33)

	ts, err = st.MaxTimestamp(ctx, id, author)
	if err != nil {
		t.Fatalf("max timestamp: %v", err)
	}
	if ts != 77 {
		t.Fatalf("expected 77, got %d", ts)
	}
}

func TestScanDetectsCorruptRow(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	id := testNamespace(t, st)
	author, _ := models.NewAuthorID()

	putTestEntry(t, st, id, author, "k", "v", 10)

	// flip the stored length behind the checksum's back
	if _, err := st.db.ExecContext(ctx, "UPDATE entries SET len = len + 1"); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if _, err := st.GetEntry(ctx, id, author, "k", false); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if _, err := st.ScanEntries(ctx, id, ScanFilter{}); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from scan, got %v", err)
	}
}
