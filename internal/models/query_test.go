package models

import (
	"sort"
	"testing"
)

func testEntry(authorByte byte, key string, ts uint64) Entry {
	var author AuthorID
	author[0] = authorByte
	return Entry{
		ID:     EntryID{Key: key, Author: author},
		Record: Record{Hash: HashOf([]byte(key)), Len: uint64(len(key)), Timestamp: ts},
	}
}

func TestParseSortByAndDirection(t *testing.T) {
	by, err := ParseSortBy("")
	if err != nil || by != SortByKey {
		t.Fatalf("expected default sort by key, got %q (%v)", by, err)
	}
	if _, err := ParseSortBy("size"); err == nil {
		t.Fatal("expected invalid sort_by error")
	}

	dir, err := ParseSortDirection("Descending")
	if err != nil || dir != SortDesc {
		t.Fatalf("expected desc, got %q (%v)", dir, err)
	}
	dir, err = ParseSortDirection("asc")
	if err != nil || dir != SortAsc {
		t.Fatalf("expected asc, got %q (%v)", dir, err)
	}
	if _, err := ParseSortDirection("sideways"); err == nil {
		t.Fatal("expected invalid sort_direction error")
	}
}

func TestQueryMatches(t *testing.T) {
	live := testEntry(1, "users/alice", 10)
	tomb := Tombstone(EntryID{Key: "users/bob", Author: live.ID.Author}, 11)

	q := Query{KeyPrefix: "users/"}
	if !q.Matches(live) {
		t.Fatal("expected prefix match")
	}
	if q.Matches(tomb) {
		t.Fatal("expected tombstone excluded by default")
	}
	q.IncludeEmpty = true
	if !q.Matches(tomb) {
		t.Fatal("expected tombstone included with include_empty")
	}

	q = Query{Key: "users/alice"}
	if !q.Matches(live) || q.Matches(testEntry(1, "users/alice2", 12)) {
		t.Fatal("exact key filter mismatch")
	}

	other, _ := NewAuthorID()
	q = Query{Author: &other}
	if q.Matches(live) {
		t.Fatal("expected author filter to exclude entry")
	}
}

func TestQueryOrderIsDeterministic(t *testing.T) {
	entries := []Entry{
		testEntry(2, "b", 30),
		testEntry(1, "b", 10),
		testEntry(3, "a", 20),
		testEntry(1, "c", 20),
	}

	q := Query{SortBy: SortByKey, Direction: SortAsc}.Normalize()
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return q.Less(sorted[i], sorted[j]) })

	wantKeys := []string{"a", "b", "b", "c"}
	for i, want := range wantKeys {
		if sorted[i].ID.Key != want {
			t.Fatalf("position %d: expected key %q, got %q", i, want, sorted[i].ID.Key)
		}
	}
	// author breaks the tie between the two "b" entries
	if sorted[1].ID.Author[0] != 1 || sorted[2].ID.Author[0] != 2 {
		t.Fatalf("tie break by author failed: %v then %v", sorted[1].ID.Author[0], sorted[2].ID.Author[0])
	}

	q = Query{SortBy: SortByTimestamp, Direction: SortDesc}.Normalize()
	sort.SliceStable(sorted, func(i, j int) bool { return q.Less(sorted[i], sorted[j]) })
	if sorted[0].Record.Timestamp != 30 {
		t.Fatalf("expected newest first, got ts %d", sorted[0].Record.Timestamp)
	}
	// equal timestamps break by author, reversed along with the direction
	if sorted[1].ID.Author[0] != 3 || sorted[2].ID.Author[0] != 1 {
		t.Fatalf("descending tie break mismatch: author %d, author %d", sorted[1].ID.Author[0], sorted[2].ID.Author[0])
	}

	asc := Query{SortBy: SortByTimestamp, Direction: SortAsc}.Normalize()
	reversed := append([]Entry(nil), sorted...)
	sort.SliceStable(reversed, func(i, j int) bool { return asc.Less(reversed[i], reversed[j]) })
	for i := range sorted {
		if reversed[i] != sorted[len(sorted)-1-i] {
			t.Fatalf("descending is not the exact reverse of ascending at %d", i)
		}
	}
}
