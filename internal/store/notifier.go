package store

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// notifier is the in-process change hub shared by the store implementations.
// Every successful write publishes to the subscribers of that document.
type notifier struct {
	mu   sync.RWMutex
	subs map[string]map[int64]func()
	next int64
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[int64]func())}
}

func refKey(collection string, id primitive.ObjectID) string {
	return collection + "/" + id.Hex()
}

func (n *notifier) subscribe(collection string, id primitive.ObjectID, fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := refKey(collection, id)
	if n.subs[key] == nil {
		n.subs[key] = make(map[int64]func())
	}
	n.next++
	token := n.next
	n.subs[key][token] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[key], token)
		if len(n.subs[key]) == 0 {
			delete(n.subs, key)
		}
	}
}

func (n *notifier) publish(collection string, id primitive.ObjectID) {
	n.mu.RLock()
	fns := make([]func(), 0, len(n.subs[refKey(collection, id)]))
	for _, fn := range n.subs[refKey(collection, id)] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
