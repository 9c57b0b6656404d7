// Package bus implements the in-process message bus that coordinates the
// agent loop, hook execution, and interactive confirmation prompts. It is a
// typed publish/subscribe channel keyed by message kind, with correlation-id
// matching for request/response pairs.
//
// The bus is scoped to one CLI session: constructed at startup, discarded at
// shutdown. There is no persistence and no replay.
package bus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aide-sh/aide/internal/log"
)

// Handler receives published messages for a subscribed kind.
type Handler func(msg Message)

// Subscription identifies one handler registration so it can be removed.
type Subscription struct {
	kind Kind
	id   int
}

type entry struct {
	id      int
	handler Handler
}

// Bus routes messages to subscribed handlers. Delivery is synchronous and in
// subscription order. The internal lock is never held while a handler runs,
// so handlers may publish, subscribe, or unsubscribe during their own
// invocation.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	handlers  map[Kind][]entry
	delivered map[string]bool // correlation ids of responses already delivered
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		handlers:  make(map[Kind][]entry),
		delivered: make(map[string]bool),
	}
}

// Subscribe registers handler for all messages of the given kind and returns
// a token for Unsubscribe.
func (b *Bus) Subscribe(kind Kind, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[kind] = append(b.handlers[kind], entry{id: b.nextID, handler: handler})
	return Subscription{kind: kind, id: b.nextID}
}

// Unsubscribe removes a previous registration. Unknown tokens are a no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[sub.kind]
	for i, e := range entries {
		if e.id == sub.id {
			b.handlers[sub.kind] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// Publish delivers msg to every handler subscribed to its kind, in
// subscription order. A response message whose correlation id was already
// delivered is dropped: at most one response is ever delivered per
// correlation id. Publishing a kind with no subscribers is not an error.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	if r, ok := msg.(Response); ok {
		if id := r.Correlation(); id != "" {
			if b.delivered[id] {
				b.mu.Unlock()
				log.Logger().Debug("duplicate response dropped",
					zap.String("kind", string(msg.MessageKind())),
					zap.String("correlationId", id))
				return
			}
			b.delivered[id] = true
		}
	}
	// Copy the handler list so the lock is released before any handler runs.
	entries := append([]entry(nil), b.handlers[msg.MessageKind()]...)
	b.mu.Unlock()

	for _, e := range entries {
		e.handler(msg)
	}
}

// SubscriberCount reports the number of handlers registered for a kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}
