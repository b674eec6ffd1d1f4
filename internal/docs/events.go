package docs

import (
	"github.com/dhiway/starter-kit/internal/models"
)

// Subscribe registers a watcher for entry events on the document. Events
// arrive in apply order. A subscriber that stops draining its channel is
// cancelled once its buffer fills; Lagged distinguishes that from a plain
// Cancel. Subscriptions end with the handle that created them.
func (h *Handle) Subscribe() (*Subscription, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}

	state := h.state
	state.mu.Lock()
	if state.dropped {
		state.mu.Unlock()
		return nil, errDocumentDropped()
	}
	id := state.nextSubID
	state.nextSubID++
	sub := &Subscription{
		id:    id,
		state: state,
		ch:    make(chan models.EntryEvent, subscriberBuffer),
	}
	state.subs[id] = sub
	state.mu.Unlock()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.Cancel()
		return nil, errHandleClosed()
	}
	h.subs = append(h.subs, sub)
	h.mu.Unlock()
	return sub, nil
}
