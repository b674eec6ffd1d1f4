package docs

import (
	"context"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

// subscriberBuffer is the per-subscription event backlog. A subscriber that
// falls this far behind is cancelled rather than allowed to block writers.
const subscriberBuffer = 128

// docState is the in-memory registry record of one open document. It exists
// while at least one handle is open and is rebuilt on the next Open after
// the last handle closes.
type docState struct {
	id models.DocumentID

	// mu serializes all writes to the document, including the schema
	// attach precondition check. Reads do not take it.
	mu           sync.Mutex
	capability   models.Capability
	refs         int
	dropped      bool
	syncEnabled  bool
	syncPeers    []string
	clocks       map[models.AuthorID]uint64
	schema       *jsonschema.Schema
	schemaLoaded bool
	subs         map[uint64]*Subscription
	nextSubID    uint64
}

func newDocState(id models.DocumentID, capability models.Capability) *docState {
	return &docState{
		id:         id,
		capability: capability,
		clocks:     make(map[models.AuthorID]uint64),
		subs:       make(map[uint64]*Subscription),
	}
}

// nextTimestamp issues a strictly increasing timestamp for the author,
// never behind the wall clock or the author's persisted history.
// Callers hold d.mu.
func (d *docState) nextTimestamp(ctx context.Context, store replica.DocumentStore, author models.AuthorID) (uint64, error) {
	last, ok := d.clocks[author]
	if !ok {
		persisted, err := store.MaxTimestamp(ctx, d.id, author)
		if err != nil {
			return 0, resourceError(err)
		}
		last = persisted
	}

	ts := uint64(time.Now().UnixMicro())
	if ts <= last {
		ts = last + 1
	}
	d.clocks[author] = ts
	return ts, nil
}

// emit delivers an event to every subscriber. Callers hold d.mu, so
// subscribers observe events in apply order.
func (d *docState) emit(event models.EntryEvent) {
	for id, sub := range d.subs {
		select {
		case sub.ch <- event:
		default:
			delete(d.subs, id)
			sub.lagged = true
			close(sub.ch)
		}
	}
}

// closeSubs cancels every subscription. Callers hold d.mu.
func (d *docState) closeSubs() {
	for id, sub := range d.subs {
		delete(d.subs, id)
		close(sub.ch)
	}
}

// Subscription is a live feed of entry events for one document.
type Subscription struct {
	id     uint64
	state  *docState
	ch     chan models.EntryEvent
	lagged bool
	done   bool
}

// Events returns the event channel. It is closed when the subscription is
// cancelled, the document is dropped, or the subscriber lagged too far.
func (s *Subscription) Events() <-chan models.EntryEvent {
	return s.ch
}

// Lagged reports whether the subscription was cancelled for falling behind.
func (s *Subscription) Lagged() bool {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.lagged
}

// Cancel stops the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Cancel() {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	if _, ok := s.state.subs[s.id]; ok {
		delete(s.state.subs, s.id)
		close(s.ch)
	}
}
