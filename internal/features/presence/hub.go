package presence

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub fans status updates out to in-process subscribers, one buffered channel
// per subscriber per organization. A subscriber that cannot keep up has
// updates dropped; detached subscribers miss events entirely, consumers get
// at-most-current-state semantics, not replay.
type Hub struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[primitive.ObjectID]map[int64]chan StatusUpdate
}

func NewHub() *Hub {
	return &Hub{subs: make(map[primitive.ObjectID]map[int64]chan StatusUpdate)}
}

const subscriberBuffer = 16

func (h *Hub) Subscribe(orgID primitive.ObjectID) (<-chan StatusUpdate, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan StatusUpdate, subscriberBuffer)
	if h.subs[orgID] == nil {
		h.subs[orgID] = make(map[int64]chan StatusUpdate)
	}
	h.subs[orgID][id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[orgID][id]; ok {
			delete(h.subs[orgID], id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

func (h *Hub) Publish(orgID primitive.ObjectID, update StatusUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[orgID] {
		select {
		case ch <- update:
		default:
		}
	}
}
