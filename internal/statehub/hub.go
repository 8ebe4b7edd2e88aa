// Package statehub is the single owner of in-memory document state. All
// mutation goes through Update, which applies the change under the hub's
// lock and then notifies subscribers; broadcast is decoupled from mutation so
// a slow listener can never stall the pipeline.
package statehub

import (
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/eduflow/eduflow-cli/internal/model"
)

const subscriberBuffer = 16

// EventKind labels what happened to a document.
type EventKind string

const (
	EventPut     EventKind = "put"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
)

// Event is one state-change notification.
type Event struct {
	Kind     EventKind
	Document model.Document
}

// Hub holds document state and fans out change events.
type Hub struct {
	mu   sync.RWMutex
	docs map[string]model.Document

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		docs: make(map[string]model.Document),
		subs: make(map[int]chan Event),
	}
}

// Put inserts or replaces a document.
func (h *Hub) Put(doc model.Document) {
	h.mu.Lock()
	h.docs[doc.ID] = doc
	h.mu.Unlock()
	h.broadcast(Event{Kind: EventPut, Document: doc})
}

// Get returns a copy of the document, if present.
func (h *Hub) Get(id string) (model.Document, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	doc, ok := h.docs[id]
	return doc, ok
}

// List returns copies of all documents.
func (h *Hub) List() []model.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Document, 0, len(h.docs))
	for _, doc := range h.docs {
		out = append(out, doc)
	}
	return out
}

// Update applies fn to the document under the hub's lock and broadcasts the
// result. fn receives a copy and returns the replacement.
func (h *Hub) Update(id string, fn func(model.Document) model.Document) error {
	h.mu.Lock()
	doc, ok := h.docs[id]
	if !ok {
		h.mu.Unlock()
		return eris.Errorf("statehub: document %s not found", id)
	}
	doc = fn(doc)
	doc.ID = id // fn cannot rekey the document
	h.docs[id] = doc
	h.mu.Unlock()

	h.broadcast(Event{Kind: EventUpdated, Document: doc})
	return nil
}

// Remove deletes a document. Removing an absent id is a no-op.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	doc, ok := h.docs[id]
	if ok {
		delete(h.docs, id)
	}
	h.mu.Unlock()
	if ok {
		h.broadcast(Event{Kind: EventRemoved, Document: doc})
	}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the subscription; the channel closes on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.subMu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	h.subMu.Unlock()

	cancel := func() {
		h.subMu.Lock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
		h.subMu.Unlock()
	}
	return ch, cancel
}

// broadcast sends without blocking; a subscriber with a full buffer misses
// the event.
func (h *Hub) broadcast(ev Event) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			zap.L().Debug("statehub: dropping event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("document", ev.Document.ID),
			)
		}
	}
}
