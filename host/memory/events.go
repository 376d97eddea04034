package memory

import (
	"sync"

	"github.com/google/uuid"
	"github.com/leeforge/hostbridge/host"
)

// dispatcher delivers host events synchronously, in subscription order.
type dispatcher struct {
	mu          sync.RWMutex
	subscribers map[host.EventKind][]subscriberEntry
	kinds       map[host.CallbackID]host.EventKind
}

type subscriberEntry struct {
	id      host.CallbackID
	handler host.Handler
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		subscribers: make(map[host.EventKind][]subscriberEntry),
		kinds:       make(map[host.CallbackID]host.EventKind),
	}
}

func (d *dispatcher) subscribe(kind host.EventKind, h host.Handler) host.CallbackID {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := host.CallbackID(uuid.NewString())
	d.subscribers[kind] = append(d.subscribers[kind], subscriberEntry{id: id, handler: h})
	d.kinds[id] = kind
	return id
}

func (d *dispatcher) unsubscribe(id host.CallbackID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kind, ok := d.kinds[id]
	if !ok {
		return host.ErrUnknownCallback
	}
	delete(d.kinds, id)

	subs := d.subscribers[kind]
	for i, entry := range subs {
		if entry.id == id {
			d.subscribers[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	return nil
}

// fire snapshots the subscriber list so handlers may add or remove callbacks
// while the event is being delivered. A handler removed by an earlier handler
// in the same delivery is skipped.
func (d *dispatcher) fire(kind host.EventKind, payload host.Payload) int {
	d.mu.RLock()
	subs := append([]subscriberEntry{}, d.subscribers[kind]...)
	d.mu.RUnlock()

	delivered := 0
	for _, entry := range subs {
		if !d.has(entry.id) {
			continue
		}
		entry.handler(host.Event{Kind: kind, Callback: entry.id, Payload: payload})
		delivered++
	}
	return delivered
}

func (d *dispatcher) has(id host.CallbackID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.kinds[id]
	return ok
}

func (d *dispatcher) count(kind host.EventKind) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[kind])
}
