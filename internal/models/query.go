package models

import (
	"bytes"
	"fmt"
	"strings"
)

// SortBy names the primary ordering field for entry queries.
type SortBy string

const (
	SortByKey       SortBy = "key"
	SortByAuthor    SortBy = "author"
	SortByTimestamp SortBy = "timestamp"
)

// SortDirection orders a query ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Query describes one entry listing: optional filters, a total order, and
// a pagination window. The zero value lists all live entries by key.
type Query struct {
	Key          string
	KeyPrefix    string
	Author       *AuthorID
	IncludeEmpty bool
	SortBy       SortBy
	Direction    SortDirection
	Limit        uint64
	Offset       uint64
}

func ParseSortBy(raw string) (SortBy, error) {
	value := SortBy(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "":
		return SortByKey, nil
	case SortByKey, SortByAuthor, SortByTimestamp:
		return value, nil
	default:
		return "", fmt.Errorf("invalid sort_by value: %s", raw)
	}
}

func ParseSortDirection(raw string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return SortAsc, nil
	case "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort_direction value: %s", raw)
	}
}

// Normalize fills defaulted sort fields so comparisons are total.
func (q Query) Normalize() Query {
	if q.SortBy == "" {
		q.SortBy = SortByKey
	}
	if q.Direction == "" {
		q.Direction = SortAsc
	}
	return q
}

// Matches reports whether an entry passes the query filters. Ordering and
// pagination are applied separately.
func (q Query) Matches(e Entry) bool {
	if !q.IncludeEmpty && e.IsEmpty() {
		return false
	}
	if q.Key != "" && e.ID.Key != q.Key {
		return false
	}
	if q.KeyPrefix != "" && !strings.HasPrefix(e.ID.Key, q.KeyPrefix) {
		return false
	}
	if q.Author != nil && e.ID.Author != *q.Author {
		return false
	}
	return true
}

// Less is the query's total order over entries. Ties on the primary field
// break by (author, key) so equal inputs always yield the same sequence;
// descending exactly reverses the ascending order.
func (q Query) Less(a, b Entry) bool {
	if q.Direction == SortDesc {
		return compareEntries(q.SortBy, b, a) < 0
	}
	return compareEntries(q.SortBy, a, b) < 0
}

func compareEntries(by SortBy, a, b Entry) int {
	switch by {
	case SortByAuthor:
		if c := bytes.Compare(a.ID.Author[:], b.ID.Author[:]); c != 0 {
			return c
		}
		return strings.Compare(a.ID.Key, b.ID.Key)
	case SortByTimestamp:
		if a.Record.Timestamp != b.Record.Timestamp {
			if a.Record.Timestamp < b.Record.Timestamp {
				return -1
			}
			return 1
		}
		if c := bytes.Compare(a.ID.Author[:], b.ID.Author[:]); c != 0 {
			return c
		}
		return strings.Compare(a.ID.Key, b.ID.Key)
	default:
		if c := strings.Compare(a.ID.Key, b.ID.Key); c != 0 {
			return c
		}
		return bytes.Compare(a.ID.Author[:], b.ID.Author[:])
	}
}
