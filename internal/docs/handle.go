package docs

import (
	"context"
	"fmt"
	"sync"

	"github.com/dhiway/starter-kit/internal/models"
)

// Handle is one open reference to a document. Handles are cheap; every Open
// or Join returns a fresh one and each must be closed exactly once. Methods
// on a closed handle fail with a closed error; methods on a handle whose
// document was dropped fail not-found, the same as a fresh Open would.
type Handle struct {
	svc   *Service
	state *docState

	mu     sync.Mutex
	closed bool
	subs   []*Subscription
}

// Document returns the id of the document this handle is open on.
func (h *Handle) Document() models.DocumentID {
	return h.state.id
}

// Capability returns the capability currently held for the document.
func (h *Handle) Capability() models.Capability {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return h.state.capability
}

// Close releases the handle and cancels its subscriptions. The document's
// in-memory state is discarded when the last handle closes. Close is
// idempotent and never fails.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}

	h.svc.mu.Lock()
	h.state.mu.Lock()
	if h.state.refs > 0 {
		h.state.refs--
	}
	lastRef := h.state.refs == 0
	h.state.mu.Unlock()
	if lastRef {
		if current, ok := h.svc.docs[h.state.id]; ok && current == h.state {
			delete(h.svc.docs, h.state.id)
		}
	}
	h.svc.mu.Unlock()
	return nil
}

// Status reports the live state of the document: capability, sync flag and
// the current subscriber and handle counts.
func (h *Handle) Status(ctx context.Context) (models.DocumentStatus, error) {
	if err := h.guard(); err != nil {
		return models.DocumentStatus{}, err
	}
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return models.DocumentStatus{
		ID:              h.state.id,
		Capability:      h.state.capability,
		SyncEnabled:     h.state.syncEnabled,
		SubscriberCount: len(h.state.subs),
		HandleCount:     h.state.refs,
	}, nil
}

// Share mints a ticket for the document. Sharing write access requires the
// write capability; read tickets can be minted from any handle.
func (h *Handle) Share(ctx context.Context, mode models.ShareMode, addrs models.AddrOption) (string, error) {
	if err := h.guard(); err != nil {
		return "", err
	}
	if mode == models.ShareModeWrite {
		if err := h.requireWrite(); err != nil {
			return "", err
		}
	}

	ticket := models.NewTicket(h.state.id, mode, h.svc.ticketAddrs(addrs))
	encoded, err := ticket.Encode()
	if err != nil {
		return "", resourceError(err)
	}
	h.svc.log().Debug("ticket issued", "doc", h.state.id, "mode", mode)
	return encoded, nil
}

// StartSync enables syncing and records the given peers as sync targets.
func (h *Handle) StartSync(ctx context.Context, peers []string) error {
	if err := h.guard(); err != nil {
		return err
	}
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	if h.state.dropped {
		return errDocumentDropped()
	}
	h.state.syncEnabled = true
	h.state.syncPeers = appendPeers(h.state.syncPeers, peers)
	return nil
}

// Leave stops syncing the document. Local state and entries are kept; use
// Service.Drop to delete them.
func (h *Handle) Leave(ctx context.Context) error {
	if err := h.guard(); err != nil {
		return err
	}
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	if h.state.dropped {
		return errDocumentDropped()
	}
	h.state.syncEnabled = false
	h.state.syncPeers = nil
	return nil
}

func (h *Handle) guard() error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return errHandleClosed()
	}

	h.svc.mu.Lock()
	svcClosed := h.svc.closed
	h.svc.mu.Unlock()
	if svcClosed {
		return errServiceClosed()
	}

	h.state.mu.Lock()
	dropped := h.state.dropped
	h.state.mu.Unlock()
	if dropped {
		return errDocumentDropped()
	}
	return nil
}

func (h *Handle) requireWrite() error {
	h.state.mu.Lock()
	capability := h.state.capability
	h.state.mu.Unlock()
	if !capability.AllowsWrite() {
		return capabilityError(fmt.Errorf("document %s is read-only", h.state.id))
	}
	return nil
}

func (s *Service) ticketAddrs(opt models.AddrOption) []string {
	var addrs []string
	switch opt {
	case models.AddrOptionID:
		return nil
	case models.AddrOptionRelay:
		if s.opts.RelayURL != "" {
			addrs = append(addrs, s.opts.RelayURL)
		}
	case models.AddrOptionAddresses:
		addrs = append(addrs, s.opts.ShareAddrs...)
	default:
		if s.opts.RelayURL != "" {
			addrs = append(addrs, s.opts.RelayURL)
		}
		addrs = append(addrs, s.opts.ShareAddrs...)
	}
	return addrs
}
