package api

import "github.com/dhiway/starter-kit/internal/models"

// SetEntryRequest writes one key/value entry.
type SetEntryRequest struct {
	DocID    string `json:"doc_id"`
	AuthorID string `json:"author_id"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// SetEntryResponse carries the content hash of the stored value.
type SetEntryResponse struct {
	Hash string `json:"hash"`
}

// SetEntryFileRequest imports a file's bytes as an entry value.
type SetEntryFileRequest struct {
	DocID    string `json:"doc_id"`
	AuthorID string `json:"author_id"`
	Key      string `json:"key"`
	FilePath string `json:"file_path"`
}

// SetEntryFileResponse reports the imported entry.
type SetEntryFileResponse struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
	Size uint64 `json:"size"`
}

// GetEntryRequest reads one entry by (author, key).
type GetEntryRequest struct {
	DocID        string `json:"doc_id"`
	AuthorID     string `json:"author_id"`
	Key          string `json:"key"`
	IncludeEmpty bool   `json:"include_empty"`
}

// GetEntryResponse is the wire form of one entry.
type GetEntryResponse struct {
	models.Entry
}

// GetEntriesRequest lists entries matching a query.
type GetEntriesRequest struct {
	DocID string    `json:"doc_id"`
	Query QuerySpec `json:"query_params"`
}

// GetEntriesResponse carries the matched entries in query order.
type GetEntriesResponse struct {
	Entries []models.Entry `json:"entries"`
}

// DeleteEntryRequest tombstones one entry by exact key.
type DeleteEntryRequest struct {
	DocID    string `json:"doc_id"`
	AuthorID string `json:"author_id"`
	Key      string `json:"key"`
}

// DeleteEntryResponse reports how many entries were tombstoned.
type DeleteEntryResponse struct {
	DeletedCount int `json:"deleted_count"`
}

// GetEntryBlobRequest fetches raw content by hash.
type GetEntryBlobRequest struct {
	Hash string `json:"hash"`
}

// GetEntryBlobResponse carries the content bytes.
type GetEntryBlobResponse struct {
	Content string `json:"content"`
}

// QuerySpec is the JSON form of an entry query. All fields are optional;
// the zero value lists every live entry in key order.
type QuerySpec struct {
	AuthorID     string `json:"author_id,omitempty"`
	Key          string `json:"key,omitempty"`
	KeyPrefix    string `json:"key_prefix,omitempty"`
	IncludeEmpty bool   `json:"include_empty,omitempty"`
	SortBy       string `json:"sort_by,omitempty"`
	Direction    string `json:"sort_direction,omitempty"`
	Limit        uint64 `json:"limit,omitempty"`
	Offset       uint64 `json:"offset,omitempty"`
}

// ToQuery parses the spec into the core query type. Unknown sort fields,
// directions or a malformed author id fail here, before any scan.
func (s QuerySpec) ToQuery() (models.Query, error) {
	var q models.Query

	sortBy, err := models.ParseSortBy(s.SortBy)
	if err != nil {
		return q, err
	}
	direction, err := models.ParseSortDirection(s.Direction)
	if err != nil {
		return q, err
	}

	q = models.Query{
		Key:          s.Key,
		KeyPrefix:    s.KeyPrefix,
		IncludeEmpty: s.IncludeEmpty,
		SortBy:       sortBy,
		Direction:    direction,
		Limit:        s.Limit,
		Offset:       s.Offset,
	}
	if s.AuthorID != "" {
		author, err := models.ParseAuthorID(s.AuthorID)
		if err != nil {
			return models.Query{}, err
		}
		q.Author = &author
	}
	return q, nil
}
