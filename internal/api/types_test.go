package api

import (
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/dhiway/starter-kit/internal/models"
)

func TestErrorFrom(t *testing.T) {
	resp := ErrorFrom(nil)
	if resp.Error != "" || resp.Code != "" || resp.ErrorCode != 0 {
		t.Fatalf("nil error should map to the zero response, got %+v", resp)
	}

	// unclassified errors fall back to the resource family
	resp = ErrorFrom(errors.New("disk on fire"))
	if resp.Code != "resource" {
		t.Fatalf("expected resource code, got %q", resp.Code)
	}
	if resp.ErrorCode == 0 {
		t.Fatal("expected a numeric error code")
	}
	if resp.Error != "disk on fire" {
		t.Fatalf("message not preserved: %q", resp.Error)
	}
}

func TestQuerySpecToQuery(t *testing.T) {
	author, err := models.NewAuthorID()
	if err != nil {
		t.Fatalf("new author: %v", err)
	}

	spec := QuerySpec{
		AuthorID:     author.String(),
		KeyPrefix:    "users/",
		IncludeEmpty: true,
		SortBy:       "timestamp",
		Direction:    "descending",
		Limit:        10,
		Offset:       5,
	}
	q, err := spec.ToQuery()
	if err != nil {
		t.Fatalf("to query: %v", err)
	}
	if q.Author == nil || *q.Author != author {
		t.Fatal("author filter not carried over")
	}
	if q.SortBy != models.SortByTimestamp || q.Direction != models.SortDesc {
		t.Fatalf("sort fields mismatch: %+v", q)
	}
	if q.KeyPrefix != "users/" || !q.IncludeEmpty || q.Limit != 10 || q.Offset != 5 {
		t.Fatalf("filter fields mismatch: %+v", q)
	}

	// empty spec means all live entries, key ascending
	q, err = QuerySpec{}.ToQuery()
	if err != nil {
		t.Fatalf("zero spec: %v", err)
	}
	if q.SortBy != models.SortByKey || q.Direction != models.SortAsc || q.Author != nil {
		t.Fatalf("unexpected defaults: %+v", q)
	}

	bad := []QuerySpec{
		{SortBy: "size"},
		{Direction: "sideways"},
		{AuthorID: "not-an-author"},
	}
	for _, spec := range bad {
		if _, err := spec.ToQuery(); err == nil {
			t.Fatalf("expected error for %+v", spec)
		}
	}
}

func TestEntryWireShape(t *testing.T) {
	author := models.AuthorID{1}
	doc := models.DocumentID{2}
	entry := models.Entry{
		ID:     models.EntryID{Doc: doc, Key: "users/alice", Author: author},
		Record: models.Record{Hash: models.HashOf([]byte("v")), Len: 1, Timestamp: 42},
	}

	data, err := json.Marshal(GetEntryResponse{Entry: entry})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"namespace"`, `"record"`, `"doc"`, `"key"`, `"author"`, `"hash"`, `"len"`, `"timestamp"`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("wire form missing %s: %s", want, data)
		}
	}

	var decoded GetEntryResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Entry != entry {
		t.Fatalf("round trip mismatch: %+v", decoded.Entry)
	}
}
