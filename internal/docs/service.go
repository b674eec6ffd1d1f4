// Package docs implements the document layer: schema-aware entry management
// on top of the replica store and the content-addressed blob store.
//
// A Service owns the registry of open documents. Callers obtain a Handle per
// document via Open or Join and release it with Close; the in-memory state
// for a document lives exactly as long as at least one handle is open.
package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dhiway/starter-kit/internal/blobstore"
	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

// defaultReadRetries bounds internal retries of idempotent scans.
const defaultReadRetries = 2

// Options carries node-level settings.
type Options struct {
	// ShareAddrs are the dialable addresses advertised in tickets.
	ShareAddrs []string
	// RelayURL is the relay advertised in tickets, if any.
	RelayURL string
	// ReadRetries overrides how often idempotent reads are retried on
	// transient store failures. Zero selects the default.
	ReadRetries int
}

// Service coordinates documents, entries, schemas and blobs. All methods are
// safe for concurrent use.
type Service struct {
	store  replica.DocumentStore
	blobs  blobstore.BlobStore
	logger *slog.Logger
	opts   Options

	mu     sync.Mutex
	docs   map[models.DocumentID]*docState
	closed bool
}

// NewService creates a document service on top of the given stores.
func NewService(store replica.DocumentStore, blobs blobstore.BlobStore, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		blobs:  blobs,
		logger: logger,
		opts:   opts,
		docs:   make(map[models.DocumentID]*docState),
	}
}

// DocumentInfo is one row of List: a known document and the capability the
// node holds for it.
type DocumentInfo struct {
	ID         models.DocumentID
	Capability models.Capability
}

// CreateDocument creates a new empty document with write capability and
// returns its id.
func (s *Service) CreateDocument(ctx context.Context) (models.DocumentID, error) {
	if err := s.guard(); err != nil {
		return models.DocumentID{}, err
	}

	id, err := models.NewDocumentID()
	if err != nil {
		return models.DocumentID{}, resourceError(fmt.Errorf("generate document id: %w", err))
	}
	ns := replica.Namespace{ID: id, Capability: models.CapabilityWrite}
	if err := s.store.CreateNamespace(ctx, ns); err != nil {
		return models.DocumentID{}, resourceCode(ErrCodeStoreFailure, fmt.Errorf("create document: %w", err))
	}
	s.log().Info("document created", "doc", id)
	return id, nil
}

// Open returns a handle on a known document. Each successful Open must be
// paired with a Handle.Close.
func (s *Service) Open(ctx context.Context, id models.DocumentID) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errServiceClosed()
	}

	if state, ok := s.docs[id]; ok {
		state.mu.Lock()
		dropped := state.dropped
		if !dropped {
			state.refs++
		}
		state.mu.Unlock()
		if !dropped {
			return &Handle{svc: s, state: state}, nil
		}
	}

	ns, err := s.store.GetNamespace(ctx, id)
	if err != nil {
		return nil, resourceCode(ErrCodeStoreFailure, fmt.Errorf("load document: %w", err))
	}
	if ns == nil {
		return nil, notFoundCode(ErrCodeDocumentNotFound, fmt.Errorf("document %s not found", id))
	}

	state := newDocState(id, ns.Capability)
	state.refs = 1
	s.docs[id] = state
	return &Handle{svc: s, state: state}, nil
}

// Join imports the document named by a ticket, starts syncing with the
// ticket's addresses and returns an open handle. Joining with a write ticket
// upgrades a document previously known read-only.
func (s *Service) Join(ctx context.Context, encoded string) (*Handle, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	ticket, err := models.DecodeTicket(encoded)
	if err != nil {
		return nil, malformedCode(ErrCodeInvalidTicket, err)
	}
	capability := ticket.Mode.Capability()

	ns, err := s.store.GetNamespace(ctx, ticket.Doc)
	if err != nil {
		return nil, resourceCode(ErrCodeStoreFailure, fmt.Errorf("load document: %w", err))
	}
	switch {
	case ns == nil:
		created := replica.Namespace{ID: ticket.Doc, Capability: capability}
		if err := s.store.CreateNamespace(ctx, created); err != nil {
			return nil, resourceCode(ErrCodeStoreFailure, fmt.Errorf("import document: %w", err))
		}
	case capability.AllowsWrite() && !ns.Capability.AllowsWrite():
		if err := s.store.SetCapability(ctx, ticket.Doc, models.CapabilityWrite); err != nil {
			return nil, resourceCode(ErrCodeStoreFailure, fmt.Errorf("upgrade capability: %w", err))
		}
	}

	handle, err := s.Open(ctx, ticket.Doc)
	if err != nil {
		return nil, err
	}

	state := handle.state
	state.mu.Lock()
	if capability.AllowsWrite() {
		state.capability = models.CapabilityWrite
	}
	state.syncEnabled = true
	state.syncPeers = appendPeers(state.syncPeers, ticket.Addrs)
	state.mu.Unlock()

	s.log().Info("document joined", "doc", ticket.Doc, "mode", ticket.Mode, "peers", len(ticket.Addrs))
	return handle, nil
}

// List returns every document known to the node with its capability.
func (s *Service) List(ctx context.Context) ([]DocumentInfo, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	namespaces, err := s.store.ListNamespaces(ctx)
	if err != nil {
		return nil, resourceCode(ErrCodeStoreFailure, fmt.Errorf("list documents: %w", err))
	}
	infos := make([]DocumentInfo, 0, len(namespaces))
	for _, ns := range namespaces {
		infos = append(infos, DocumentInfo{ID: ns.ID, Capability: ns.Capability})
	}
	return infos, nil
}

// Drop permanently deletes a document and its entries. Open handles observe
// the drop on their next operation; the id cannot be reopened.
func (s *Service) Drop(ctx context.Context, id models.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errServiceClosed()
	}

	found, err := s.store.DeleteNamespace(ctx, id)
	if err != nil {
		return resourceCode(ErrCodeStoreFailure, fmt.Errorf("drop document: %w", err))
	}
	if !found {
		return notFoundCode(ErrCodeDocumentNotFound, fmt.Errorf("document %s not found", id))
	}

	if state, ok := s.docs[id]; ok {
		state.mu.Lock()
		state.dropped = true
		state.closeSubs()
		state.mu.Unlock()
		delete(s.docs, id)
	}
	s.log().Info("document dropped", "doc", id)
	return nil
}

// ReadBlob opens blob content by hash, independent of any document.
func (s *Service) ReadBlob(ctx context.Context, hash models.Hash) (io.ReadCloser, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	rc, err := s.blobs.Open(ctx, hash)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, notFoundCode(ErrCodeBlobNotFound, fmt.Errorf("blob %s not found", hash))
		}
		return nil, resourceCode(ErrCodeBlobFailure, fmt.Errorf("open blob: %w", err))
	}
	return rc, nil
}

// Close shuts the service down. Subscriptions are cancelled and subsequent
// operations on the service or its handles fail.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, state := range s.docs {
		state.mu.Lock()
		state.closeSubs()
		state.mu.Unlock()
		delete(s.docs, id)
	}
	return nil
}

func (s *Service) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errServiceClosed()
	}
	return nil
}

func (s *Service) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func (s *Service) readRetries() int {
	if s.opts.ReadRetries > 0 {
		return s.opts.ReadRetries
	}
	return defaultReadRetries
}

func appendPeers(existing, extra []string) []string {
	for _, addr := range extra {
		seen := false
		for _, have := range existing {
			if have == addr {
				seen = true
				break
			}
		}
		if !seen {
			existing = append(existing, addr)
		}
	}
	return existing
}
