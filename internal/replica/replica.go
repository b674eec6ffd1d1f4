// Package replica persists the replicated document state: namespaces with
// their metadata (capability, schema, download policy) and the
// last-write-wins entry set of each namespace.
package replica

import (
	"context"
	"errors"
	"time"

	"github.com/dhiway/starter-kit/internal/models"
)

var (
	// ErrNotFound is returned by updates whose target namespace is absent.
	ErrNotFound = errors.New("namespace not found")
	// ErrCorrupt is returned when a stored entry row fails its checksum.
	ErrCorrupt = errors.New("entry record corrupt")
)

// Namespace is the persisted root record of a document.
type Namespace struct {
	ID         models.DocumentID
	Capability models.Capability
	SchemaText string
	SchemaHash models.Hash
	Policy     models.DownloadPolicy
	CreatedAt  time.Time
}

// HasSchema reports whether a schema has been attached.
func (n Namespace) HasSchema() bool {
	return n.SchemaText != ""
}

// ScanFilter narrows an entry scan. Zero fields match everything.
type ScanFilter struct {
	Author       *models.AuthorID
	Key          string
	KeyPrefix    string
	IncludeEmpty bool
}

// DocumentStore abstracts namespace and entry persistence.
//
// Get-style methods return (nil, nil) when the row is absent; callers decide
// whether absence is an error.
type DocumentStore interface {
	CreateNamespace(ctx context.Context, ns Namespace) error
	GetNamespace(ctx context.Context, id models.DocumentID) (*Namespace, error)
	ListNamespaces(ctx context.Context) ([]Namespace, error)
	DeleteNamespace(ctx context.Context, id models.DocumentID) (bool, error)

	SetCapability(ctx context.Context, id models.DocumentID, capability models.Capability) error
	SetSchema(ctx context.Context, id models.DocumentID, schemaText string, schemaHash models.Hash) (bool, error)
	SetDownloadPolicy(ctx context.Context, id models.DocumentID, policy models.DownloadPolicy) error

	PutEntry(ctx context.Context, entry models.Entry) (bool, error)
	GetEntry(ctx context.Context, id models.DocumentID, author models.AuthorID, key string, includeEmpty bool) (*models.Entry, error)
	ScanEntries(ctx context.Context, id models.DocumentID, filter ScanFilter) ([]models.Entry, error)
	DeleteEntries(ctx context.Context, id models.DocumentID, author models.AuthorID, prefix string, timestamp uint64) ([]string, error)
	CountLiveEntries(ctx context.Context, id models.DocumentID) (int64, error)
	MaxTimestamp(ctx context.Context, id models.DocumentID, author models.AuthorID) (uint64, error)

	Close() error
}

var _ DocumentStore = (*Store)(nil)
